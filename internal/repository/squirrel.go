package repository

import sq "github.com/Masterminds/squirrel"

// psql builds PostgreSQL statements with dollar placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
