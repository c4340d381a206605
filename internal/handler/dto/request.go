package dto

// ReloadRequest represents the optional body for POST /__livereload/reload.
type ReloadRequest struct {
	Path string `json:"path,omitempty"`
}
