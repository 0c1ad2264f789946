package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"classecho-go/internal/config"
	"classecho-go/internal/constants"
	"classecho-go/internal/credential"
	"classecho-go/internal/logging"
	srv "classecho-go/internal/server"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type options struct {
	configPath string
	envFile    string
	debug      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (YAML or JSON); config.yaml is used when present")
	flag.StringVar(&opts.envFile, "env", ".env", "Path to a dotenv file loaded before configuration")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug mode")
	flag.Parse()

	if err := run(opts); err != nil {
		if errors.Is(err, credential.ErrNoCredentials) {
			log.Fatal("No API keys found! Set GROQ_API_KEY or GROQ_API_KEY1, GROQ_API_KEY2, ...")
		}
		log.WithError(err).Fatal("server exited")
	}
}

// run returns instead of exiting so deferred cleanup always happens.
func run(opts options) error {
	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warnf("failed to load %s", opts.envFile)
	}

	cfg, err := config.Load(resolveConfigPath(opts.configPath))
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if opts.debug {
		cfg.Security.Debug = true
	}
	if err := logging.Setup(cfg); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logging.Close()

	stream := logging.NewStream(0, 0)
	log.AddHook(stream.Hook(log.InfoLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := buildApp(ctx, cfg, stream)
	if err != nil {
		return fmt.Errorf("start (prefix %s): %w", cfg.Credentials.EnvPrefix, err)
	}
	defer app.Close()

	engine := srv.BuildEngine(cfg, app.deps)
	httpSrv := srv.NewHTTPServer(cfg, engine)

	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":             httpSrv.Addr,
			"keys":             app.cursor.Pool().Len(),
			"upstream":         cfg.Upstream.BaseURL,
			"upstream_timeout": cfg.UpstreamTimeout().String(),
			"stats_backend":    cfg.Stats.Backend,
		}).Info("ClassEcho API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	var runErr error
	select {
	case <-sig:
		log.Info("Shutdown signal received")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown incomplete")
	}
	log.Info("Server stopped")
	return runErr
}
