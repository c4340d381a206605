package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/mtlprog/slidekit/internal/domain"
	"github.com/mtlprog/slidekit/internal/handler/dto"
	"github.com/mtlprog/slidekit/internal/livereload"
	"github.com/mtlprog/slidekit/internal/metrics"
	"github.com/mtlprog/slidekit/internal/middleware"
)

const (
	// BuildsPath lists recorded builds.
	BuildsPath = "/__builds"
	// MetricsPath exposes Prometheus metrics.
	MetricsPath = "/__metrics"

	defaultBuildsLimit = 20
	maxBuildsLimit     = 200
)

// BuildHistory is the read side of the build history store.
type BuildHistory interface {
	ListRecent(ctx context.Context, limit int) ([]domain.BuildRecord, error)
	GetByID(ctx context.Context, id string) (*domain.BuildRecord, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	root    string
	mode    domain.ServerMode
	hub     *livereload.Hub
	policy  *middleware.CachePolicy
	history BuildHistory
}

// New creates a Handler. hub is required in dev mode; history may be nil.
func New(root string, mode domain.ServerMode, hub *livereload.Hub, history BuildHistory) *Handler {
	return &Handler{
		root:    root,
		mode:    mode,
		hub:     hub,
		policy:  middleware.NewCachePolicy(),
		history: history,
	}
}

// RegisterRoutes registers all HTTP routes for the handler's mode.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// Build history
	mux.HandleFunc("GET "+BuildsPath, h.handleListBuilds)
	mux.HandleFunc("GET "+BuildsPath+"/{id}", h.handleGetBuild)

	classify := func(p string) string { return string(h.policy.Classify(p).Class) }
	files := middleware.Instrument(classify)(http.FileServer(http.Dir(h.root)))

	switch h.mode {
	case domain.ServerModeDev:
		mux.HandleFunc("GET "+livereload.SocketPath, h.hub.ServeWS)
		mux.HandleFunc("GET "+livereload.ScriptPath, livereload.ServeScript)
		mux.HandleFunc("POST "+livereload.ReloadPath, h.handleReload)
		mux.Handle("/", livereload.Inject(files))
	case domain.ServerModeProd:
		mux.Handle("GET "+MetricsPath, metrics.Handler())
		mux.Handle("/", middleware.CacheControl(h.policy)(files))
	}
}

// handleHealthz returns 200 OK while the server is accepting requests.
// @Summary Health check
// @Description Reports the server mode and the served root
// @Tags system
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /healthz [get]
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, dto.HealthResponse{
		Status: "ok",
		Mode:   string(h.mode),
		Root:   h.root,
	})
}

// handleReload broadcasts a reload to every connected browser.
// @Summary Trigger a live reload
// @Description Sends a reload command to every browser connected to the dev server. The body is optional.
// @Tags livereload
// @Accept json
// @Produce json
// @Param request body dto.ReloadRequest false "Changed path"
// @Success 200 {object} dto.ReloadResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /__livereload/reload [post]
func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	var req dto.ReloadRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
			return
		}
	}

	msg := h.hub.Reload(req.Path)
	slog.Info("manual reload triggered", "path", req.Path, "clients", h.hub.Count())

	respondJSON(w, http.StatusOK, dto.ReloadResponse{
		ID:      msg.ID,
		Path:    msg.Path,
		Clients: h.hub.Count(),
	})
}

// handleListBuilds returns the most recent builds.
// @Summary List recent builds
// @Description Returns recorded builds, newest first. Requires a configured build history database.
// @Tags builds
// @Produce json
// @Param limit query int false "Number of builds (1-200)" default(20)
// @Success 200 {object} dto.BuildsListResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /__builds [get]
func (h *Handler) handleListBuilds(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondDomainError(w, domain.ErrHistoryDisabled)
		return
	}

	limit := defaultBuildsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxBuildsLimit {
			respondDomainError(w, domain.ErrInvalidLimit)
			return
		}
		limit = n
	}

	builds, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := dto.BuildsListResponse{Builds: make([]dto.BuildResponse, 0, len(builds)), Limit: limit}
	for _, b := range builds {
		resp.Builds = append(resp.Builds, dto.ToBuildResponse(b))
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleGetBuild returns a single build by ID.
// @Summary Get a build
// @Description Returns one recorded build
// @Tags builds
// @Produce json
// @Param id path string true "Build ID"
// @Success 200 {object} dto.BuildResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /__builds/{id} [get]
func (h *Handler) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondDomainError(w, domain.ErrHistoryDisabled)
		return
	}

	id, ok := extractBuildID(w, r)
	if !ok {
		return
	}

	build, err := h.history.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.ToBuildResponse(*build))
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// extractBuildID extracts and validates the build ID path parameter.
// Returns (id, true) if valid, ("", false) if invalid (error already sent to client).
func extractBuildID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "build id is required")
		return "", false
	}

	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "build id must be a valid UUID")
		return "", false
	}

	return id, true
}
