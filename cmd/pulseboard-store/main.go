package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pulseboard/pulseboard/internal/habitstore"
	"github.com/pulseboard/pulseboard/internal/httpapi"
)

func main() {
	addr := os.Getenv("PULSEBOARD_STORE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	stateBackend, err := habitstore.BuildStateBackendFromDSN(strings.TrimSpace(os.Getenv("PULSEBOARD_STATE_BACKEND_DSN")))
	if err != nil {
		log.Fatalf("failed to initialize state backend: %v", err)
	}

	store := habitstore.NewStoreWithOptions(habitstore.StoreOptions{
		StateBackend: stateBackend,
		StateFile:    os.Getenv("PULSEBOARD_STATE_FILE"),
		Logger:       log.Default(),
	})
	defer store.Close()

	server := httpapi.NewServerWithConfig(store, httpapi.ServerConfig{
		RateLimitMax:    intEnv("PULSEBOARD_RATE_LIMIT_MAX", 0),
		RateLimitWindow: durationEnv("PULSEBOARD_RATE_LIMIT_WINDOW", time.Minute),
		MaxBodyBytes:    int64Env("PULSEBOARD_MAX_BODY_BYTES", 0),
	})

	log.Printf("pulseboard store listening on %s", addr)
	if err := http.ListenAndServe(addr, server); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func intEnv(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func int64Env(name string, fallback int64) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %s", name, raw, fallback.String())
		return fallback
	}
	return value
}
