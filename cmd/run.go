package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/gin-gonic/gin"
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	v1 "github.com/testcentral/outpost/api/v1"
	"github.com/testcentral/outpost/internal/config"
	"github.com/testcentral/outpost/internal/handlers"
	"github.com/testcentral/outpost/internal/server"
	"github.com/testcentral/outpost/internal/services"
	"github.com/testcentral/outpost/internal/store"
	"github.com/testcentral/outpost/internal/store/migrations"
	"github.com/testcentral/outpost/pkg/archive"
	"github.com/testcentral/outpost/pkg/central"
	"github.com/testcentral/outpost/pkg/credentials"
	"github.com/testcentral/outpost/pkg/inventory"
	"github.com/testcentral/outpost/pkg/jobs"
	"github.com/testcentral/outpost/pkg/runner"
	"github.com/testcentral/outpost/pkg/scheduler"
)

const (
	runnerKindRake   = "rake"
	runnerKindPodman = "podman"

	shutdownTimeout = 10 * time.Second
)

func NewRunCommand(cfg *config.Configuration) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Register with Test Central and serve test runs",
		PreRunE: cobrautil.CommandStack(
			loadConfig(&configFile),
			setupLogging(cfg),
			func(cmd *cobra.Command, args []string) error {
				return validateConfiguration(cfg)
			},
		),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&configFile, "config", "", "Optional YAML config file; keys are flag names")
	registerServerFlags(fs, cfg)
	registerOutpostFlags(fs, cfg)
	registerCentralFlags(fs, cfg)
	registerRegistrationFlags(fs, cfg)
	registerRunnerFlags(fs, cfg)
	registerArchiveFlags(fs, cfg)
	registerLogFlags(fs, cfg)

	return cmd
}

func validateConfiguration(cfg *config.Configuration) error {
	if cfg.Server.HTTPPort < 1 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http-port %d: must be between 1 and 65535", cfg.Server.HTTPPort)
	}

	switch cfg.Server.ServerMode {
	case server.DevServer, server.ProductionServer:
	default:
		return fmt.Errorf("invalid server mode %q: must be %s or %s", cfg.Server.ServerMode, server.DevServer, server.ProductionServer)
	}

	if cfg.Outpost.Silo == "" {
		return errors.New("outpost-silo cannot be empty")
	}
	if !jobs.IsPathSegment(cfg.Outpost.Silo) {
		return fmt.Errorf("invalid outpost-silo %q: must be a single directory name", cfg.Outpost.Silo)
	}

	if cfg.Outpost.ExternalHost != "" {
		if err := validateBaseURL(cfg.Outpost.ExternalHost); err != nil {
			return fmt.Errorf("invalid outpost-external-host: %w", err)
		}
	}

	if cfg.Central.URL == "" {
		return errors.New("central-url cannot be empty")
	}
	if err := validateBaseURL(cfg.Central.URL); err != nil {
		return fmt.Errorf("invalid central-url: %w", err)
	}

	if cfg.Central.Retries < 1 {
		return fmt.Errorf("invalid central-retries %d: must be at least 1", cfg.Central.Retries)
	}

	switch cfg.Runner.Kind {
	case runnerKindRake:
		if cfg.Runner.RakeBin == "" {
			return errors.New("runner-rake-bin cannot be empty")
		}
	case runnerKindPodman:
		if cfg.Runner.PodmanSocket == "" || cfg.Runner.PodmanImage == "" {
			return errors.New("runner-podman-socket and runner-podman-image must be set when runner-kind is podman")
		}
	default:
		return fmt.Errorf("invalid runner-kind %q: must be %s or %s", cfg.Runner.Kind, runnerKindRake, runnerKindPodman)
	}

	if cfg.Runner.Task == "" {
		return errors.New("runner-task cannot be empty")
	}
	if cfg.Runner.Timeout < 0 {
		return errors.New("runner-timeout cannot be negative")
	}

	if cfg.Archive.Enabled {
		if err := archive.Validate(cfg.Archive); err != nil {
			return fmt.Errorf("invalid archive configuration: %w", err)
		}
	}

	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

func newRunner(cfg *config.Configuration) (runner.Runner, error) {
	if cfg.Runner.Kind == runnerKindPodman {
		return runner.NewPodmanRunner(cfg.Runner.PodmanSocket, cfg.Runner.PodmanImage, cfg.Outpost.WorkDir)
	}
	return runner.NewRakeRunner(cfg.Outpost.WorkDir), nil
}

func run(ctx context.Context, cfg *config.Configuration) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zap.S().Named("run")
	defer func() { _ = zap.L().Sync() }()

	logger.Infow("starting outpost", "configuration", cfg.DebugMap())

	clk := clock.NewClock()
	lookup := inventory.NewLookup(cfg.Outpost.WorkDir)

	client, err := central.NewClient(cfg.Central.URL, cfg.Central.Timeout)
	if err != nil {
		return err
	}

	session, reg, err := services.NewRegistrar(*cfg, client, credentials.NewDiskStore(cfg.Central.SessionFile), lookup, clk).Register(ctx)
	if err != nil {
		return fmt.Errorf("failed to register with test central: %w", err)
	}
	logger.Infow("registered with test central", "name", reg.Name, "silo", reg.Silo, "status_url", reg.StatusURL, "exec_url", reg.ExecURL)

	db, err := store.NewDB(store.MemoryDSN)
	if err != nil {
		return fmt.Errorf("failed to open run journal: %w", err)
	}
	if err := migrations.Run(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to migrate run journal: %w", err)
	}
	st := store.NewStore(db)
	defer func() { _ = st.Close() }()

	r, err := newRunner(cfg)
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(1)
	state := services.NewRunStateMachine()
	dispatcher := services.NewDispatcher(*cfg, state, sched, r, st.Runs(), clk)

	if cfg.Archive.Enabled {
		archiver, err := archive.NewArchiver(cfg.Archive)
		if err != nil {
			sched.Close()
			return err
		}
		if err := archiver.EnsureBucket(ctx); err != nil {
			sched.Close()
			return err
		}
		dispatcher.WithArchiver(archiver)
	}

	h := handlers.New(
		services.NewExecutionService(jobs.NewBuilder(clk, session.Token), state, dispatcher, cfg.Outpost.Silo),
		services.NewStatusService(lookup, state, reg.Name, cfg.Outpost.Silo),
		services.NewRunHistoryService(st.Runs()),
	)

	srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
		v1.RegisterHandlers(router, h)
	})
	if err != nil {
		sched.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infow("serving", "port", cfg.Server.HTTPPort, "tls", cfg.Server.TLSEnabled)
		if err := srv.Start(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		srv.Stop(shutdownCtx)
		sched.Close()
		dispatcher.Wait()
		return nil
	})

	return g.Wait()
}
