package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/bisa-app/factcheck/internal/cache"
	"github.com/bisa-app/factcheck/internal/factcheck"
	"github.com/bisa-app/factcheck/internal/llm"
	"github.com/bisa-app/factcheck/internal/metrics"
	"github.com/bisa-app/factcheck/internal/model"
	"github.com/bisa-app/factcheck/internal/pipeline"
	"github.com/bisa-app/factcheck/internal/posts"
	"github.com/bisa-app/factcheck/internal/score"
	"github.com/bisa-app/factcheck/internal/sources"
	"github.com/bisa-app/factcheck/internal/store"
)

// app holds the wired collaborators shared by the commands
type app struct {
	cfg          *model.Config
	store        store.ResultStore
	guard        factcheck.Guard
	posts        posts.Accessor
	resolver     *sources.Resolver
	authority    *sources.AuthorityClassifier
	recorder     *metrics.Recorder
	orchestrator *factcheck.Orchestrator
}

type appOptions struct {
	withPosts bool // load the post accessor
	withAI    bool // wire the configured AI backend
	readOnly  bool // only reads earlier runs; refuses the memory store
}

func newApp(ctx context.Context, cfg *model.Config, opts appOptions) (*app, error) {
	if opts.readOnly && isMemoryStore(cfg.Store) {
		return nil, errMemoryStore
	}
	a := &app{cfg: cfg, recorder: metrics.NewRecorder()}
	if err := a.wire(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, opts appOptions) error {
	cfg := a.cfg
	var err error

	a.resolver, a.authority, err = sources.Build(cfg.Sources.CatalogPath)
	if err != nil {
		return fmt.Errorf("load source catalog: %w", err)
	}

	var ai llm.Provider
	if opts.withAI {
		ai, err = llm.NewProvider(cfg.LLM, cache.New(cfg.Cache))
		if err != nil {
			return fmt.Errorf("create AI provider: %w", err)
		}
		if ai != nil && verbose {
			fmt.Fprintf(os.Stderr, "AI verification: %s/%s\n", ai.Name(), cfg.LLM.Model)
		}
	}

	p := pipeline.NewPipeline(pipeline.Options{
		Profile:   cfg.Profile,
		Resolver:  a.resolver,
		Authority: a.authority,
		AI:        ai,
		AITimeout: cfg.LLM.Timeout,
		Random:    randomSource(cfg.Profile),
	})

	if opts.withPosts {
		a.posts, err = posts.New(cfg.Posts)
		if err != nil {
			return fmt.Errorf("open posts: %w", err)
		}
	}

	a.store, err = store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	a.guard, err = factcheck.NewGuard(ctx, cfg.Guard)
	if err != nil {
		return err
	}

	a.orchestrator = factcheck.NewOrchestrator(factcheck.Options{
		Store:      a.store,
		Analyzer:   p,
		Posts:      a.posts,
		Guard:      a.guard,
		PendingTTL: cfg.Guard.PendingTTL,
		Metrics:    a.recorder,
	})
	return nil
}

var errMemoryStore = errors.New("store.driver memory keeps no runs between invocations; set store.driver to sqlite or postgres")

func isMemoryStore(cfg model.StoreConfig) bool {
	return cfg.Driver == "" || cfg.Driver == "memory"
}

// Close releases the store and guard
func (a *app) Close() {
	if a.guard != nil {
		if err := a.guard.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close guard: %v\n", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close store: %v\n", err)
		}
	}
}

// randomSource returns nil unless the profile asks for jitter. A zero seed
// seeds from the clock.
func randomSource(profile model.Profile) score.RandomSource {
	if profile.Jitter <= 0 {
		return nil
	}
	seed := profile.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
