package dto

import (
	"time"

	"github.com/mtlprog/slidekit/internal/domain"
)

// HealthResponse represents the response for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
	Root   string `json:"root"`
}

// ReloadResponse represents the response for POST /__livereload/reload.
type ReloadResponse struct {
	ID      string `json:"id"`
	Path    string `json:"path,omitempty"`
	Clients int    `json:"clients"`
}

// BuildResponse represents one entry of the build history.
type BuildResponse struct {
	ID         string    `json:"id"`
	Root       string    `json:"root"`
	Dist       string    `json:"dist"`
	Files      int       `json:"files"`
	Bytes      int64     `json:"bytes"`
	Skipped    int       `json:"skipped"`
	DurationMS int64     `json:"duration_ms"`
	Status     string    `json:"status"`
	Error      *string   `json:"error"`
	StartedAt  time.Time `json:"started_at"`
}

// BuildsListResponse represents the response for GET /__builds.
type BuildsListResponse struct {
	Builds []BuildResponse `json:"builds"`
	Limit  int             `json:"limit"`
}

// ToBuildResponse converts a domain build record to its API representation.
func ToBuildResponse(b domain.BuildRecord) BuildResponse {
	return BuildResponse{
		ID:         b.ID,
		Root:       b.Root,
		Dist:       b.Dist,
		Files:      b.Files,
		Bytes:      b.Bytes,
		Skipped:    b.Skipped,
		DurationMS: b.DurationMS,
		Status:     string(b.Status),
		Error:      b.Error,
		StartedAt:  b.StartedAt,
	}
}
