package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/lesniewskii/weight-tracker/internal/adapter/api"
	"github.com/lesniewskii/weight-tracker/internal/adapter/file"
	"github.com/lesniewskii/weight-tracker/internal/adapter/memory"
	"github.com/lesniewskii/weight-tracker/internal/app"
	"github.com/lesniewskii/weight-tracker/internal/config"
	"github.com/lesniewskii/weight-tracker/internal/domain"
	"github.com/lesniewskii/weight-tracker/internal/logging"
	"github.com/lesniewskii/weight-tracker/internal/metrics"
)

const usageText = `usage: weighttracker [-env dev|prod] [-config path] <command> [flags]

commands:
  login      log in and store the session
  register   create an account and log in
  logout     forget the stored session
  me         show the profile
  profile    update email, height or age
  add        add a measurement
  edit       change a measurement
  delete     delete a measurement
  list       list measurements, newest first
  goals      list goals
  goal       add a goal
  export     download measurements as CSV
  import     upload measurements from a CSV file
  view       fetch everything once and print the view model
  serve      run the dashboard
`

// memorySessionPath keeps the session in memory only.
const memorySessionPath = "-"

type cli struct {
	cfg      *config.Config
	out      io.Writer
	registry *prometheus.Registry
	metrics  *metrics.Manager

	refresh      *app.Coordinator
	auth         *app.AuthService
	measurements *app.MeasurementService
	goals        *app.GoalService
	transfer     *app.TransferService
}

func main() {
	env := flag.String("env", "development", "environment [dev | development | prod | production]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usageText) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*env, *configPath, ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logCloser := logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
		Environment:   cfg.Environment,
	})

	log.Debugf("using backend: [%s]", cfg.BackendURL)
	log.Debugf("using session path: [%s]", cfg.SessionPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	c, err := newCLI(ctx, cfg, os.Stdout)
	if err == nil {
		err = c.run(ctx, flag.Arg(0), flag.Args()[1:])
	}
	stop()
	_ = logCloser.Close()

	if errors.Is(err, errUsage) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCLI(ctx context.Context, cfg *config.Config, out io.Writer) (*cli, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewManager(metrics.Namespace, metrics.Subsystem, reg)

	sessions := app.NewSessionContext()
	client, err := api.New(cfg.BackendURL, sessions, api.WithMetrics(m))
	if err != nil {
		return nil, err
	}

	refresh := app.NewCoordinator(client, app.WithUnit(cfg.Unit), app.WithMetrics(m))

	var store domain.SessionStore
	if cfg.SessionPath == memorySessionPath {
		store = memory.New()
	} else {
		fileStore := file.NewSessionStore(cfg.SessionPath)
		log.Debugf("session stored at [%s]", fileStore.Path())
		store = fileStore
	}
	auth := app.NewAuthService(client, store, sessions, refresh)

	if cfg.Token != "" {
		sess := auth.UseToken(cfg.Token)
		log.Debugf("using token from environment, user [%s]", sess.Username)
	} else if err := auth.Restore(ctx); err != nil {
		log.Warnf("could not restore session: %s", err)
	}

	return &cli{
		cfg:          cfg,
		out:          out,
		registry:     reg,
		metrics:      m,
		refresh:      refresh,
		auth:         auth,
		measurements: app.NewMeasurementService(client, client, refresh, m),
		goals:        app.NewGoalService(client, client, refresh, m),
		transfer:     app.NewTransferService(client, refresh, m),
	}, nil
}
