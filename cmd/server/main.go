// Package main is the entry point for the switch. It wires the stores,
// external clients and services once at startup and serves the HTTP API.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"upiswitch/internal/clients/bank"
	"upiswitch/internal/clients/directory"
	"upiswitch/internal/clients/forensic"
	"upiswitch/internal/clients/gateway"
	"upiswitch/internal/clients/graph"
	"upiswitch/internal/clients/inference"
	"upiswitch/internal/config"
	"upiswitch/internal/handlers"
	"upiswitch/internal/middleware"
	"upiswitch/internal/repositories"
	"upiswitch/internal/services/fraud"
	"upiswitch/internal/services/notification"
	"upiswitch/internal/services/router"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadEnv()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := repositories.InitDB(); err != nil {
		slog.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer repositories.CloseDB()

	callTimeout := config.GetDurationEnv("CALL_TIMEOUT", router.DefaultCallTimeout)

	bankClient := bank.New(config.GetMapEnv("BANK_URLS", map[string]string{
		"AXIS": "http://localhost:7070",
		"SBI":  "http://localhost:7071",
	}), callTimeout)

	dirClient := directory.New(config.GetEnv("GATEWAY_URL", "http://localhost:8080"), callTimeout)
	gatewayClient := gateway.New(
		config.GetEnv("GATEWAY_URL", "http://localhost:8080"),
		config.GetEnv("GATEWAY_SERVICE_TOKEN", ""),
		callTimeout,
	)
	forensicClient := forensic.New(config.GetEnv("FORENSIC_URL", "http://localhost:8000"), 15*time.Second)

	// Graph store and model endpoints are optional: the pipeline degrades
	// per its documented fallbacks when they are absent.
	var graphStore fraud.GraphStore
	if uri := config.GetEnv("NEO4J_URI", ""); uri != "" {
		store, err := graph.New(uri, config.GetEnv("NEO4J_USER", "neo4j"), config.GetEnv("NEO4J_PASSWORD", ""))
		if err != nil {
			slog.Warn("graph store unavailable, graph stage will be skipped", "error", err)
		} else {
			graphStore = store
			defer store.Close(context.Background())
		}
	}
	var graphModel fraud.GraphModel
	var policyModel fraud.PolicyModel
	if base := config.GetEnv("INFERENCE_URL", ""); base != "" {
		graphModel = inference.NewGraphRiskClient(base, callTimeout)
		policyModel = inference.NewPolicyClient(base, callTimeout)
	} else {
		slog.Warn("inference endpoint not configured, pipeline will challenge by default")
	}

	fraudService := fraud.NewService(fraud.ServiceConfig{
		Blocklist:   repositories.NewSuspiciousEntityRepository(repositories.DB),
		Graph:       graphStore,
		Features:    repositories.Cache,
		GraphModel:  graphModel,
		PolicyModel: policyModel,
		Forensic:    forensicClient,
		Access:      gatewayClient,
	})

	routerService := router.NewService(
		repositories.NewTransactionRepository(repositories.DB),
		repositories.NewLedgerRepository(repositories.DB),
		bankClient,
		fraudService,
		dirClient,
		notification.FromConfig(config.GetBoolEnv("NOTIFICATIONS_ENABLED", false)),
		router.PrometheusMetrics{},
		router.RouterConfig{
			RateLimitCeiling:            config.GetIntEnv("RATE_LIMIT_PER_MINUTE", router.DefaultRateLimitCeiling),
			RateLimitWindow:             config.GetDurationEnv("RATE_LIMIT_WINDOW", router.DefaultRateLimitWindow),
			CallTimeout:                 callTimeout,
			DeemApprovedOnIndeterminate: config.GetBoolEnv("DEEM_APPROVED_ON_TIMEOUT", true),
		},
	)

	app := fiber.New(fiber.Config{AppName: "upiswitch"})
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	handlers.SetupRoutes(app, handlers.Handlers{
		Payment:      handlers.NewPaymentHandler(routerService),
		RequestMoney: handlers.NewRequestMoneyHandler(routerService),
		Ledger:       handlers.NewLedgerHandler(repositories.NewLedgerRepository(repositories.DB)),
		Fraud:        handlers.NewFraudHandler(fraudService),
		Health:       handlers.NewHealthHandler(bankClient),
	}, middleware.NewServiceAuth(config.GetEnv("SWITCH_SERVICE_SECRET", "dev-secret")))

	addr := ":" + config.GetEnv("PORT", "9090")
	slog.Info("switch listening", "addr", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
