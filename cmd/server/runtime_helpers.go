package main

import (
	"context"
	"os"
	"strings"

	"classecho-go/internal/config"
	"classecho-go/internal/constants"
	"classecho-go/internal/credential"
	"classecho-go/internal/events"
	"classecho-go/internal/logging"
	"classecho-go/internal/pipeline"
	"classecho-go/internal/prompts"
	srv "classecho-go/internal/server"
	"classecho-go/internal/stats"
	store "classecho-go/internal/storage"
	"classecho-go/internal/upstream"
	"classecho-go/internal/upstream/groq"
	log "github.com/sirupsen/logrus"
)

const defaultConfigFile = "config.yaml"

// resolveConfigPath returns the explicit path, or config.yaml when it
// exists, or "" for environment-only configuration.
func resolveConfigPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// credentialSources lists where keys are read from, in rotation order.
func credentialSources(cfg *config.Config, lookup credential.LookupFunc) []credential.Source {
	env := credential.NewEnvSource(cfg.Credentials.EnvPrefix)
	if lookup != nil {
		env.Lookup = lookup
	}
	sources := []credential.Source{env}
	if cfg.Credentials.KeysFile != "" {
		sources = append(sources, credential.NewFileSource(cfg.Credentials.KeysFile))
	}
	return sources
}

type app struct {
	cursor  *credential.Cursor
	hub     *events.Hub
	tracker *stats.Tracker
	backend store.Backend
	deps    srv.Dependencies
}

// Close flushes queued usage updates, then closes the usage backend.
func (a *app) Close() {
	if a.tracker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
		if err := a.tracker.Close(ctx); err != nil {
			log.WithError(err).Warn("usage updates not flushed")
		}
		cancel()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			log.WithError(err).Warn("failed to close usage backend")
		}
	}
}

// buildApp wires pool, cursor, usage stats, the remote adapter and the
// pipeline. Only credential loading is fatal; a broken usage backend falls
// back to memory.
func buildApp(ctx context.Context, cfg *config.Config, stream *logging.Stream, sources ...credential.Source) (*app, error) {
	if len(sources) == 0 {
		sources = credentialSources(cfg, nil)
	}
	pool, err := credential.Load(ctx, sources...)
	if err != nil {
		return nil, err
	}
	for _, c := range pool.All() {
		log.WithFields(log.Fields{"key": c.Index + 1, "name": c.Name, "source": c.Source}).
			Debugf("loaded %s", c.Masked())
	}

	hub := events.NewHub()
	cursor := credential.NewCursor(pool)
	cursor.SetEventPublisher(hub)
	if cfg.Security.Debug {
		hub.Subscribe(events.TopicCredentialRotated, func(_ context.Context, evt events.Event) {
			log.WithField("topic", evt.Topic).Debugf("rotation event: %+v", evt.Payload)
		})
		hub.Subscribe(events.TopicPipelineFinished, func(_ context.Context, evt events.Event) {
			log.WithField("topic", evt.Topic).WithField("meta", evt.Metadata).Debug("pipeline event")
		})
	}

	backend, err := store.FromConfig(ctx, cfg.Stats)
	if err != nil {
		log.WithError(err).WithField("backend", cfg.Stats.Backend).
			Warn("usage backend unavailable; falling back to memory")
		backend = store.WithInstrumentation(store.NewMemoryBackend(), "memory")
	}
	tracker := stats.NewTracker(backend)
	tracker.Subscribe(hub)

	orch := upstream.NewOrchestrator(cursor, upstream.Options{
		MaxRetries: cfg.Credentials.MaxRetries,
		Recorder:   tracker,
	})
	client := groq.New(cfg.Upstream)
	coord := pipeline.NewCoordinator(orch, client, client, pipeline.Options{
		NotesTemperature:     cfg.Upstream.NotesTemperature,
		QuestionsTemperature: cfg.Upstream.QuestionsTemperature,
		QuestionCount:        prompts.DefaultQuestionCount,
	})
	coord.SetEventPublisher(hub)

	hub.Publish(ctx, events.TopicCredentialsLoaded, pool.Len(), map[string]string{
		"prefix": cfg.Credentials.EnvPrefix,
	})

	return &app{
		cursor:  cursor,
		hub:     hub,
		tracker: tracker,
		backend: backend,
		deps: srv.Dependencies{
			Cursor:    cursor,
			Runner:    coord,
			Usage:     tracker,
			LogStream: stream,
		},
	}, nil
}
