package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pulseboard/pulseboard/internal/board"
	"github.com/pulseboard/pulseboard/internal/feed"
	"github.com/pulseboard/pulseboard/internal/habit"
	"github.com/pulseboard/pulseboard/internal/habitsync"
	"github.com/pulseboard/pulseboard/internal/profile"
)

func main() {
	addr := flag.String("addr", envOrDefault("PULSEBOARD_ADDR", ":8090"), "dashboard listen address")
	storeURL := flag.String("store-url", envOrDefault("PULSEBOARD_STORE_URL", "http://127.0.0.1:8080"), "habit store base URL")
	profileDB := flag.String("profile-db", envOrDefault("PULSEBOARD_PROFILE_DB", "pulseboard.db"), "local profile database path")
	catalogFile := flag.String("catalog", strings.TrimSpace(os.Getenv("PULSEBOARD_CATALOG_FILE")), "habit catalog JSON file (optional, hot-reloaded)")
	contribURL := flag.String("contrib-url", strings.TrimSpace(os.Getenv("PULSEBOARD_CONTRIB_URL")), "contribution feed base URL")
	typingURL := flag.String("typing-url", strings.TrimSpace(os.Getenv("PULSEBOARD_TYPING_URL")), "typing profile page URL")
	debounce := flag.Duration("debounce", durationEnv("PULSEBOARD_SYNC_DEBOUNCE", habitsync.DefaultDebounce), "sync debounce interval")
	rehydrate := flag.Duration("rehydrate-interval", durationEnv("PULSEBOARD_REHYDRATE_INTERVAL", habitsync.DefaultRehydrateInterval), "remote rehydration interval")
	contribInterval := flag.Duration("contrib-interval", durationEnv("PULSEBOARD_CONTRIB_INTERVAL", board.DefaultContributionInterval), "contribution feed poll interval")
	typingInterval := flag.Duration("typing-interval", durationEnv("PULSEBOARD_TYPING_INTERVAL", board.DefaultTypingInterval), "typing feed poll interval")
	flag.Parse()

	profileStore, err := profile.Open(*profileDB)
	if err != nil {
		log.Fatalf("failed to open profile database: %v", err)
	}
	defer profileStore.Close()

	userID, err := profileStore.UserID()
	if err != nil {
		log.Fatalf("failed to resolve user id: %v", err)
	}

	catalog := habit.DefaultCatalog()
	if *catalogFile != "" {
		loaded, err := habit.LoadCatalog(*catalogFile)
		if err != nil {
			log.Printf("catalog load failed for %s, using defaults: %v", *catalogFile, err)
		} else {
			catalog = loaded
		}
	}

	store := habit.NewStore()
	client := habitsync.NewHTTPClient(*storeURL, &http.Client{Timeout: 15 * time.Second})
	engine, err := habitsync.NewEngine(client, store, habitsync.EngineOptions{
		UserID:            userID,
		Debounce:          *debounce,
		RehydrateInterval: *rehydrate,
		Logger:            log.Default(),
	})
	if err != nil {
		log.Fatalf("failed to initialize sync engine: %v", err)
	}
	defer engine.Close()

	server := board.NewServer(store, engine, catalog, board.NewFeedState(), log.Default())

	if *catalogFile != "" {
		watcher, err := habit.WatchCatalog(*catalogFile, server.SetCatalog, log.Default())
		if err != nil {
			log.Printf("catalog watch unavailable for %s: %v", *catalogFile, err)
		} else {
			defer watcher.Close()
		}
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go engine.Run(rootCtx)

	feedHTTP := &http.Client{Timeout: 20 * time.Second}
	contribSource := feed.NewContributionSource(*contribURL, feedHTTP, profileStore, log.Default())
	typingSource := feed.NewTypingSource(*typingURL, feedHTTP, profileStore, log.Default())
	go board.NewPoller(contribSource, *contribInterval, server.NotifyFeed).Run(rootCtx)
	go board.NewPoller(typingSource, *typingInterval, server.NotifyFeed).Run(rootCtx)

	httpServer := &http.Server{Addr: *addr, Handler: server}
	go func() {
		<-rootCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("pulseboard dashboard for %s listening on %s", userID, *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
	log.Printf("pulseboard stopping: %v", rootCtx.Err())
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
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
