package habitstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pulseboard/pulseboard/internal/habit"
)

var postgresIntegrationCounter uint64

func TestPostgresIntegrationStateBackendRoundTrip(t *testing.T) {
	dsn := postgresIntegrationDSN(t)

	backend, err := NewPostgresStateBackend(dsn)
	if err != nil {
		t.Fatalf("new postgres state backend: %v", err)
	}
	pg, ok := backend.(*PostgresStateBackend)
	if !ok {
		t.Fatalf("expected *PostgresStateBackend, got %T", backend)
	}
	pg.tableName = postgresIntegrationTableName("pulseboard_state_it")
	pg.stateKey = "it"
	t.Cleanup(func() {
		_ = backend.(interface{ Close() error }).Close()
		postgresIntegrationDropTable(t, dsn, pg.tableName)
	})

	snapshot, err := backend.Load()
	if err != nil {
		t.Fatalf("initial load failed: %v", err)
	}
	if snapshot != nil {
		t.Fatalf("expected nil initial snapshot, got %+v", snapshot)
	}

	saved := &persistedState{
		Users: map[string]habit.Snapshot{
			"user_a": {
				Daily:  habit.Completions{"Exercise_2025_3_15": true},
				Weekly: habit.Completions{"Review_2025_3_W0": true},
			},
		},
	}
	if err := backend.Save(saved); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := backend.Load()
	if err != nil {
		t.Fatalf("load after save failed: %v", err)
	}
	if loaded == nil || !loaded.Users["user_a"].Daily["Exercise_2025_3_15"] {
		t.Fatalf("unexpected loaded state: %+v", loaded)
	}

	loaded.Users["user_a"] = habit.Snapshot{Daily: habit.Completions{"Read_2025_3_16": true}}
	if err := backend.Save(loaded); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	reloaded, err := backend.Load()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded == nil || !reloaded.Users["user_a"].Daily["Read_2025_3_16"] {
		t.Fatalf("expected updated snapshot, got %+v", reloaded)
	}
	if reloaded.Users["user_a"].Daily["Exercise_2025_3_15"] {
		t.Fatalf("stale entry survived overwrite: %+v", reloaded)
	}
}

func postgresIntegrationDSN(t *testing.T) string {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("PULSEBOARD_TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("set PULSEBOARD_TEST_POSTGRES_DSN to run Postgres integration tests")
	}
	return dsn
}

func postgresIntegrationTableName(prefix string) string {
	n := atomic.AddUint64(&postgresIntegrationCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), n)
}

func postgresIntegrationDropTable(t *testing.T, dsn, tableName string) {
	t.Helper()
	if strings.TrimSpace(dsn) == "" || strings.TrimSpace(tableName) == "" {
		return
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open postgres for cleanup failed: %v", err)
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", postgresQuoteIdentifier(tableName))
	if _, err := db.ExecContext(ctx, query); err != nil {
		t.Fatalf("drop cleanup table %q failed: %v", tableName, err)
	}
}
