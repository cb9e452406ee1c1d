package main

import (
	"fmt"
	"log"
	"os"

	"mse-engine/internal/api"
	"mse-engine/internal/config"
	"mse-engine/internal/engine"
	"mse-engine/internal/llmprovider"
	"mse-engine/internal/operator"
	"mse-engine/internal/profilesim"
	"mse-engine/internal/ratelimit"
	redisdb "mse-engine/internal/redis"
	"mse-engine/internal/storage/postgres"
)

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	store, err := postgres.Open(cfg)
	if err != nil {
		log.Fatalf("[Main] DB init error: %v", err)
	}
	log.Printf("[Main] ✓ Postgres store ready")

	operators, err := operator.New(store.DB())
	if err != nil {
		log.Fatalf("[Main] Operator store init error: %v", err)
	}

	rdb := redisdb.NewClient(cfg)

	provider := llmprovider.FromConfig(cfg.LLMProviders)
	if _, ok := provider.(llmprovider.None); ok {
		log.Printf("[Main] WARNING: no LLM provider configured, GRM judging will fail open")
	} else {
		log.Printf("[Main] ✓ LLM provider configured")
	}

	// qdrant is optional: compareAgents clusters the profile vectors directly
	// either way; with a collection configured it also indexes them there.
	var profiles *profilesim.Store
	if cfg.Qdrant.Addr != "" {
		profiles, err = profilesim.NewStore(cfg.Qdrant.Addr, cfg.Qdrant.Collection, cfg.Qdrant.APIKey)
		if err != nil {
			log.Printf("[Main] WARNING: qdrant profile store unavailable, compareAgents will cluster without ANN narrowing: %v", err)
			profiles = nil
		} else {
			log.Printf("[Main] ✓ Qdrant profile similarity store ready (collection: %s)", cfg.Qdrant.Collection)
		}
	}

	eng := engine.NewEngine(store, store, store, provider, nil, profiles)
	log.Printf("[Main] ✓ Engine facade ready")

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(rdb, cfg.RateLimit)
		log.Printf("[Main] ✓ Rate limiter enabled (%d req/min, burst %d)", cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize)
	} else {
		log.Printf("[Main] Rate limiting disabled in config")
	}

	r := api.SetupRouter(cfg, rdb, eng, limiter, operators)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Starting server on %s\n", addr)
	if err := r.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
