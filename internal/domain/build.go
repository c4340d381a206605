package domain

import "time"

// BuildStatus is the outcome of a staging run.
type BuildStatus string

const (
	BuildStatusSucceeded BuildStatus = "SUCCEEDED"
	BuildStatusFailed    BuildStatus = "FAILED"
)

// IsValid checks if the status is one of the allowed values.
func (s BuildStatus) IsValid() bool {
	return s == BuildStatusSucceeded || s == BuildStatusFailed
}

// BuildRecord is a persisted entry of the build history.
type BuildRecord struct {
	ID         string
	Root       string
	Dist       string
	Files      int
	Bytes      int64
	Skipped    int
	DurationMS int64
	Status     BuildStatus
	Error      *string
	StartedAt  time.Time
}

// StageReport summarizes one staging pass.
type StageReport struct {
	Files          int
	Bytes          int64
	EntriesCopied  []string
	EntriesSkipped []string
	SpecialSkipped int
}
