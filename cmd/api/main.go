package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldservice-crm/internal/audit"
	"fieldservice-crm/internal/auth"
	"fieldservice-crm/internal/callsession"
	"fieldservice-crm/internal/config"
	"fieldservice-crm/internal/crm"
	"fieldservice-crm/internal/dialer"
	"fieldservice-crm/internal/reporting"
	"fieldservice-crm/internal/telephony"
	"fieldservice-crm/pkg/logger"
	"fieldservice-crm/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	sessions := callsession.NewPostgresStore(db)
	directory := crm.NewPostgresDirectory(db)
	auditSvc := audit.NewService(audit.NewPostgresLog(db))
	reports := reporting.NewService(reporting.NewPostgresRepository(db))
	gateway := telephony.NewTwilioGateway(cfg.Twilio)

	orchestrator := dialer.NewOrchestrator(sessions, directory, gateway, dialer.DialConfig{
		PublicBaseURL:     cfg.App.PublicBaseURL,
		DefaultFromNumber: cfg.Twilio.DefaultFromNumber,
		MachineDetection:  cfg.Twilio.MachineDetection,
		RecordCalls:       cfg.Twilio.RecordCalls,
	}).WithEmitter(audit.Emitter{Audit: auditSvc})

	reconciler := callsession.NewReconciler(sessions)
	if cfg.Twilio.WorkspaceCallCap > 0 {
		slots := dialer.NewRedisCallSlots(rdb, cfg.Twilio.WorkspaceCallCap)
		orchestrator.WithSlots(slots)
		reconciler.ReleaseSlot = slots.Release
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		AuthMW:       auth.RequireAccessToken(authManager),
		Orchestrator: orchestrator,
		Sessions:     sessions,
		Reconciler:   reconciler,
		Audit:        auditSvc,
		Reports:      reports,
		DB:           db,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
