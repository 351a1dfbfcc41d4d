package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/quantdesk/portfolio-compliance/internal/audit"
	"github.com/quantdesk/portfolio-compliance/internal/config"
	"github.com/quantdesk/portfolio-compliance/internal/monitoring"
	"github.com/quantdesk/portfolio-compliance/internal/notifications"
	"github.com/quantdesk/portfolio-compliance/internal/risk"
	"github.com/quantdesk/portfolio-compliance/internal/safety"
)

// daemon is the runtime assembly of the compliance core: the audit
// logger, pre-trade controls and emergency stop, exposed over a small
// admin API, with health and Prometheus endpoints on their own ports.
type daemon struct {
	cfg         *config.Config
	log         *zap.Logger
	auditLogger *audit.Logger
	controls    *risk.Controls
	stop        *safety.EmergencyStop
	notifier    notifications.Notifier
	health      *monitoring.HealthChecker
}

func newDaemon(cfg *config.Config, logger *zap.Logger) (*daemon, error) {
	healthChecker := monitoring.NewHealthChecker()

	var secondary audit.SecondaryStore
	if cfg.Audit.SecondaryEnabled {
		store, err := audit.OpenSQLite(cfg.Audit.SecondaryDSN)
		if err != nil {
			// The secondary is best-effort everywhere: degrade, don't die.
			logger.Warn("secondary audit store unavailable, continuing without it",
				zap.String("dsn", cfg.Audit.SecondaryDSN),
				zap.Error(err))
			healthChecker.SetSecondaryConnected(false)
		} else {
			secondary = store
			healthChecker.SetSecondaryConnected(store.Ping(context.Background()) == nil)
		}
	}

	auditLogger, err := audit.NewLogger(cfg.Audit.LogDir, logger, secondary)
	if err != nil {
		return nil, err
	}
	auditLogger.SetHealthTracker(healthChecker)

	var notifier notifications.Notifier
	if cfg.Notifications.TelegramToken != "" {
		notifier = notifications.NewTelegramNotifier(
			cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID)
	}

	stop := safety.NewEmergencyStop(auditLogger, notifier, logger)
	stop.SetFreezeTracker(healthChecker)

	controls := risk.NewControls(&risk.Config{
		MaxTradeNotional:    cfg.Risk.MaxTradeNotional,
		MaxGrossLeverage:    cfg.Risk.MaxGrossLeverage,
		MaxAssetClassWeight: cfg.Risk.MaxAssetClassWeight,
		MaxPostTradeVaR95:   cfg.Risk.MaxPostTradeVaR95,
		MaxDrawdownPct:      cfg.Risk.MaxDrawdownPct,
	})

	return &daemon{
		cfg:         cfg,
		log:         logger,
		auditLogger: auditLogger,
		controls:    controls,
		stop:        stop,
		notifier:    notifier,
		health:      healthChecker,
	}, nil
}

// alert sends a best-effort notification; failures are logged and swallowed
func (d *daemon) alert(level, message string) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.SendAlert(level, message); err != nil {
		d.log.Warn("failed to send alert", zap.Error(err))
	}
}

func setupMonitoringServers(cfg *config.Config, logger *zap.Logger, healthChecker *monitoring.HealthChecker) {
	healthMux := http.NewServeMux()
	healthMux.Handle("/health", healthChecker)

	go func() {
		logger.Info("starting health server", zap.Int("port", cfg.Monitoring.HealthPort))
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Monitoring.HealthPort), healthMux); err != nil {
			logger.Error("health server stopped", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("starting Prometheus server", zap.Int("port", cfg.Monitoring.PrometheusPort))
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort), monitoring.NewMetricsHandler()); err != nil {
			logger.Error("Prometheus server stopped", zap.Error(err))
		}
	}()
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env (%v), using environment variables...", err)
	}

	cfg := config.Load()

	logger, err := zap.NewProduction()
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	d, err := newDaemon(cfg, logger)
	if err != nil {
		logger.Fatal("failed to assemble compliance daemon", zap.Error(err))
	}

	setupMonitoringServers(cfg, logger, d.health)

	go func() {
		logger.Info("starting compliance API server", zap.Int("port", cfg.Monitoring.APIPort))
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Monitoring.APIPort), d.adminMux()); err != nil {
			logger.Error("compliance API server stopped", zap.Error(err))
		}
	}()

	d.auditLogger.LogEvent(context.Background(), audit.Event{
		Type:       audit.EventSystemStartup,
		EntityType: "system",
		EntityID:   "compliance-daemon",
		Action:     "Compliance daemon started",
		Metadata: map[string]interface{}{
			"environment":       cfg.Environment,
			"secondary_enabled": cfg.Audit.SecondaryEnabled,
		},
	})
	d.alert(notifications.LevelInfo, "Compliance daemon started in "+cfg.Environment+" mode")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d.auditLogger.LogEvent(shutdownCtx, audit.Event{
		Type:       audit.EventSystemShutdown,
		EntityType: "system",
		EntityID:   "compliance-daemon",
		Action:     "Compliance daemon stopped",
	})
	d.alert(notifications.LevelInfo, "Compliance daemon stopped")

	logger.Info("shutdown complete")
}
