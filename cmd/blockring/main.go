// Command blockring runs the mule-ring kill switch from the command line:
// it traces the accomplice neighborhood of a confirmed-fraud account and
// asks the gateway to mark every discovered account's devices untrusted.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"upiswitch/internal/clients/gateway"
	"upiswitch/internal/clients/graph"
	"upiswitch/internal/config"
	"upiswitch/internal/repositories"
	"upiswitch/internal/services/fraud"
)

func main() {
	source := flag.String("source", "", "confirmed-fraud source user id")
	target := flag.String("target", "", "counterparty user id")
	timeout := flag.Duration("timeout", 30*time.Second, "overall takedown timeout")
	flag.Parse()

	if *source == "" || *target == "" {
		flag.Usage()
		os.Exit(2)
	}

	config.LoadEnv()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := repositories.InitDB(); err != nil {
		slog.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer repositories.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var graphStore fraud.GraphStore
	if uri := config.GetEnv("NEO4J_URI", ""); uri != "" {
		store, err := graph.New(uri, config.GetEnv("NEO4J_USER", "neo4j"), config.GetEnv("NEO4J_PASSWORD", ""))
		if err != nil {
			slog.Warn("graph store unavailable, blocking the pair only", "error", err)
		} else {
			graphStore = store
			defer store.Close(context.Background())
		}
	}

	svc := fraud.NewService(fraud.ServiceConfig{
		Blocklist: repositories.NewSuspiciousEntityRepository(repositories.DB),
		Graph:     graphStore,
		Access: gateway.New(
			config.GetEnv("GATEWAY_URL", "http://localhost:8080"),
			config.GetEnv("GATEWAY_SERVICE_TOKEN", ""),
			10*time.Second,
		),
	})

	if err := svc.BlockMuleRing(ctx, *source, *target); err != nil {
		slog.Error("ring takedown incomplete", "error", err)
		os.Exit(1)
	}
	slog.Info("ring takedown complete", "source", *source, "target", *target)
}
