package smoke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mtlprog/slidekit/internal/config"
	"github.com/mtlprog/slidekit/internal/domain"
	"github.com/mtlprog/slidekit/internal/server"
)

// ProbeTimeout bounds the liveness request.
const ProbeTimeout = 5 * time.Second

// Probe issues one GET to url. Any response below 400 passes; connection
// errors, timeouts and error statuses fail.
func Probe(ctx context.Context, url string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = ProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	client := &http.Client{
		// The first response is the one being judged.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: request to %s timed out after %s", domain.ErrServerUnreachable, url, timeout)
		}
		return fmt.Errorf("%w: %v", domain.ErrServerUnreachable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s returned %s", domain.ErrServerUnreachable, url, resp.Status)
	}

	slog.Info("server responded", "url", url, "status", resp.StatusCode)
	return nil
}

// Live starts a production-like server for cfg, waits until it is bound,
// probes "/" and stops the server again.
func Live(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv, err := server.New(cfg, domain.ServerModeProd, server.WithLogger(logger))
	if err != nil {
		return err
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(runCtx) }()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		if err == nil {
			err = errors.New("server exited before binding")
		}
		return fmt.Errorf("%w: %v", domain.ErrServerUnreachable, err)
	case <-time.After(ProbeTimeout):
		return fmt.Errorf("%w: server did not bind within %s", domain.ErrServerUnreachable, ProbeTimeout)
	}

	probeErr := Probe(ctx, srv.URL()+"/", ProbeTimeout)

	stop()
	if err := <-errCh; err != nil && probeErr == nil {
		return err
	}
	return probeErr
}
