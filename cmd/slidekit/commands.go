package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/browser"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/slidekit/internal/config"
	"github.com/mtlprog/slidekit/internal/database"
	"github.com/mtlprog/slidekit/internal/domain"
	"github.com/mtlprog/slidekit/internal/handler/dto"
	"github.com/mtlprog/slidekit/internal/livereload"
	"github.com/mtlprog/slidekit/internal/repository"
	"github.com/mtlprog/slidekit/internal/server"
	"github.com/mtlprog/slidekit/internal/service"
)

// loadConfig reads the global flags into a validated Config.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Config{
		Root:        c.String("root"),
		Host:        c.String("host"),
		Port:        c.Int("port"),
		Dist:        c.String("dist"),
		DatabaseURL: c.String("database-url"),
	}
	if err := service.ValidateConfig(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openHistory connects to the build history database when one is configured.
// The returned repository is nil when history is disabled.
func openHistory(ctx context.Context, cfg config.Config) (*repository.BuildRepository, func(), error) {
	if !cfg.HistoryEnabled() {
		return nil, func() {}, nil
	}

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open build history: %w", err)
	}
	return repository.NewBuildRepository(db.Pool()), db.Close, nil
}

// newBuildService wires the service with an optional recorder.
func newBuildService(ctx context.Context, cfg config.Config) (*service.BuildService, func(), error) {
	repo, closeDB, err := openHistory(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	var recorder service.BuildRecorder
	if repo != nil {
		recorder = repo
	}
	return service.NewBuildService(cfg, recorder, slog.Default()), closeDB, nil
}

func testOptions(c *cli.Context) service.TestOptions {
	return service.TestOptions{
		References: c.Bool("refs"),
		Live:       c.Bool("live"),
		LivePort:   c.Int("live-port"),
		Runner:     strings.Fields(c.String("runner")),
	}
}

func runClean(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return service.NewBuildService(cfg, nil, slog.Default()).Clean(c.Context)
}

func runBuild(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	svc, closeDB, err := newBuildService(c.Context, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if _, err := svc.Build(c.Context); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	return nil
}

func runTest(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return service.NewBuildService(cfg, nil, slog.Default()).Test(c.Context, testOptions(c))
}

func runDefault(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	withBuild := c.Bool("build")
	svc := service.NewBuildService(cfg, nil, slog.Default())
	if withBuild {
		var closeDB func()
		svc, closeDB, err = newBuildService(c.Context, cfg)
		if err != nil {
			return err
		}
		defer closeDB()
	}
	return svc.Default(c.Context, withBuild, testOptions(c))
}

func runLint(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return service.NewBuildService(cfg, nil, slog.Default()).Lint(c.Context)
}

func runServe(c *cli.Context) error {
	opts := []server.Option{}
	if c.Bool("open") {
		opts = append(opts, server.WithOpener(browser.OpenURL))
	}
	return serve(c, domain.ServerModeDev, opts...)
}

func runServeProd(c *cli.Context) error {
	return serve(c, domain.ServerModeProd)
}

// serve runs the server until SIGINT or SIGTERM.
func serve(c *cli.Context, mode domain.ServerMode, opts ...server.Option) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeDB, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	if repo != nil {
		opts = append(opts, server.WithHistory(repo))
	}

	srv, err := server.New(cfg, mode, append(opts, server.WithLogger(slog.Default()))...)
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-srv.Ready():
			slog.Info("press Ctrl+C to stop the server")
		case <-ctx.Done():
		}
	}()

	return srv.Run(ctx)
}

func runReload(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	body, err := json.Marshal(dto.ReloadRequest{Path: c.String("path")})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.Context, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL()+livereload.ReloadPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: is the dev server running on %s? %v", domain.ErrServerUnreachable, cfg.Addr(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp dto.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error.Message != "" {
			return fmt.Errorf("reload rejected: %s", errResp.Error.Message)
		}
		return fmt.Errorf("reload rejected: %s", resp.Status)
	}

	var out dto.ReloadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	slog.Info("reload sent", "id", out.ID, "clients", out.Clients)
	return nil
}

func runHistory(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if !cfg.HistoryEnabled() {
		return domain.ErrHistoryDisabled
	}

	repo, closeDB, err := openHistory(c.Context, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if keep := c.Int("prune"); keep >= 0 {
		removed, err := repo.Prune(c.Context, keep)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "pruned %d builds\n", removed)
		return nil
	}

	if c.Bool("stats") {
		stats, err := repo.Stats(c.Context)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "TOTAL\tSUCCEEDED\tFAILED\tAVG MS\tBYTES\n")
		fmt.Fprintf(w, "%d\t%d\t%d\t%.0f\t%d\n", stats.Total, stats.Succeeded, stats.Failed, stats.AvgDurationMS, stats.TotalBytes)
		return nil
	}

	limit := c.Int("limit")
	builds, err := repo.ListRecent(c.Context, limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "ID\tSTARTED\tSTATUS\tFILES\tBYTES\tMS\n")
	for _, b := range builds {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			b.ID, b.StartedAt.Local().Format(time.DateTime), b.Status, b.Files, b.Bytes, b.DurationMS)
	}
	return nil
}
