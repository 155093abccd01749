// Package app wires the configuration, logging, instrument collaborators and
// the reduction session into the reflred command-line application.
package app

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jontaylor010/reflectivity-ui/internal/asciidata"
	"github.com/jontaylor010/reflectivity-ui/internal/config"
	apperrors "github.com/jontaylor010/reflectivity-ui/internal/errors"
	"github.com/jontaylor010/reflectivity-ui/internal/logging"
	"github.com/jontaylor010/reflectivity-ui/internal/reduction"
	"github.com/jontaylor010/reflectivity-ui/internal/server"
)

// instrumentName labels the ASCII instrument definition in logs.
const instrumentName = "REF_M"

// Application represents the reflred application instance.
type Application struct {
	Config    config.AppConfig
	Log       logging.Logger
	ErrWriter io.Writer
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithLogger sets a custom logger on the application.
func WithLogger(log logging.Logger) AppOption {
	return func(a *Application) { a.Log = log }
}

// New creates a new Application instance by parsing command-line arguments.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}

	var cmdArgs []string
	if len(args) > 0 {
		cmdArgs = args[1:]
	}
	cfg, err := config.ParseFlags(cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	if app.Log == nil {
		app.Log = logging.NewLogger(errWriter, "reflred")
	}
	return app, nil
}

// Run executes the reduction workflow.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	switch {
	case a.Config.Verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case a.Config.Quiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	metrics := server.NewMetrics()
	if a.Config.MetricsAddr != "" {
		a.serveMetrics(ctx, metrics)
	}

	instrument := asciidata.NewInstrument(instrumentName)
	session, err := reduction.NewSession(reduction.Dependencies{
		Logger:       a.Log,
		Loader:       asciidata.NewLoader(a.Log, instrument),
		Reflectivity: asciidata.NewCalculator(),
		OffSpecular:  asciidata.NewCalculator(),
		Gisans:       asciidata.NewCalculator(),
		ReducedFiles: asciidata.NewReducedFileReader(instrument),
		Metrics:      metrics,
		CacheSize:    a.Config.CacheSize,
	})
	if err != nil {
		a.Log.Error("session setup failed", err)
		return apperrors.ExitErrorConfig
	}

	code := a.runReduce(ctx, session, instrument, out)
	if ctx.Err() != nil {
		a.Log.Warn("reduction canceled")
		return apperrors.ExitErrorCanceled
	}
	return code
}

// serveMetrics exposes the Prometheus endpoint in the background for the
// lifetime of the run.
func (a *Application) serveMetrics(ctx context.Context, metrics *server.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              a.Config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Warn("metrics server stopped", logging.Err(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	a.Log.Info("serving metrics", logging.String("addr", a.Config.MetricsAddr))
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// ExitCodeFor maps a startup error to the process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return apperrors.ExitSuccess
	}
	if IsHelpError(err) {
		return apperrors.ExitSuccess
	}
	var cfgErr apperrors.ConfigError
	if errors.As(err, &cfgErr) {
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitErrorGeneric
}
