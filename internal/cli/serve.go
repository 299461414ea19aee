package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bisa-app/factcheck/internal/api"
	"github.com/bisa-app/factcheck/internal/model"
	"github.com/bisa-app/factcheck/internal/scheduler"
	"github.com/bisa-app/factcheck/internal/sources"
	"github.com/bisa-app/factcheck/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var auditOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fact-check HTTP API",
	Long: `Serve exposes the fact-check lifecycle over HTTP:

  POST /posts/{id}/fact-check            trigger a run
  GET  /posts/{id}/fact-check            latest completed result
  GET  /posts/{id}/fact-check/history    every run, newest first
  GET  /posts/{id}/fact-check/status     current state
  POST /fact-check/analyze               dry-run analysis
  GET  /health, /metrics

When sources.audit_schedule is set, the reference source catalog is
audited on that schedule. --audit-on-start runs one audit at startup.

Addresses listed in rate_limit.trusted are limited at
rate_limit.trusted_requests_per_second instead of the per-client rate.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().BoolVar(&auditOnStart, "audit-on-start", false, "audit the source catalog once at startup")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{withPosts: true, withAI: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Sources.AuditSchedule != "" || auditOnStart {
		sched := scheduler.New(0)
		auditor := sources.NewAuditor(cfg.Sources, a.authority)
		audit := scheduler.AuditJob(auditor, a.resolver.Sources(), a.recorder)

		if cfg.Sources.AuditSchedule != "" {
			if err := sched.AddJob("source-audit", cfg.Sources.AuditSchedule, audit); err != nil {
				return err
			}
			sched.Start()
			defer func() { <-sched.Stop().Done() }()
			for _, job := range sched.Jobs() {
				log.Printf("scheduled %s, next run %s", job.Name, job.NextRun.Format(time.RFC3339))
			}
		}
		if auditOnStart {
			go func() {
				if err := sched.RunNow("source-audit", audit); err != nil {
					log.Printf("startup audit: %v", err)
				}
			}()
		}
	}

	server := api.NewServer(a.orchestrator, api.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Limiter:     clientLimiter(cfg.RateLimit),
		Metrics:     a.recorder.Handler(),
	})

	log.Printf("store=%s posts=%s guard=%s ai=%q", cfg.Store.Driver, cfg.Posts.Source, cfg.Guard.Backend, cfg.LLM.Provider)
	if err := server.Run(ctx, cfg.Server); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	log.Printf("shut down")
	return nil
}

// clientLimiter limits API clients per address. Trusted addresses get a
// pinned bucket at the trusted rate.
func clientLimiter(cfg model.RateLimitConfig) *worker.Limiter {
	limiter := worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	for _, addr := range cfg.Trusted {
		limiter.SetKeyRate(addr, cfg.TrustedRequestsPerSecond, cfg.TrustedBurst)
	}
	return limiter
}
