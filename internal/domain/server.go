package domain

// ServerMode selects how the static server is configured.
type ServerMode string

const (
	// ServerModeDev serves the sources with watching and live reload.
	ServerModeDev ServerMode = "dev"
	// ServerModeProd serves with production cache headers and no watching.
	ServerModeProd ServerMode = "prod"
)

// IsValid checks if the mode is one of the allowed values.
func (m ServerMode) IsValid() bool {
	return m == ServerModeDev || m == ServerModeProd
}
