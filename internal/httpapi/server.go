// Package httpapi exposes the remote habits store over HTTP. Agents read
// their snapshot with GET /v1/habits/{userId} and push the full snapshot
// with POST /v1/habits.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/pulseboard/pulseboard/internal/habit"
	"github.com/pulseboard/pulseboard/internal/habitstore"
)

const pushSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["userId"],
	"properties": {
		"userId": {"type": "string", "minLength": 1},
		"dailyHabits": {"type": "object", "additionalProperties": {"type": "boolean"}},
		"weeklyHabits": {"type": "object", "additionalProperties": {"type": "boolean"}},
		"monthlyHabits": {"type": "object", "additionalProperties": {"type": "boolean"}}
	},
	"additionalProperties": false
}`

type ServerConfig struct {
	RateLimitMax    int
	RateLimitWindow time.Duration
	MaxBodyBytes    int64
}

type Server struct {
	store       *habitstore.Store
	cfg         ServerConfig
	rateLimiter *rateLimiter
	pushSchema  *jsonschema.Schema
}

type rateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string]rateEntry
}

type rateEntry struct {
	count   int
	resetAt time.Time
}

// habitsPayload is the wire shape shared by GET responses and POST bodies.
type habitsPayload struct {
	UserID  string            `json:"userId"`
	Daily   habit.Completions `json:"dailyHabits"`
	Weekly  habit.Completions `json:"weeklyHabits"`
	Monthly habit.Completions `json:"monthlyHabits"`
}

func NewServer(store *habitstore.Store) *Server {
	return NewServerWithConfig(store, ServerConfig{})
}

func NewServerWithConfig(store *habitstore.Store, cfg ServerConfig) *Server {
	if cfg.RateLimitMax < 0 {
		cfg.RateLimitMax = 0
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	var limiter *rateLimiter
	if cfg.RateLimitMax > 0 {
		limiter = &rateLimiter{
			window:  cfg.RateLimitWindow,
			max:     cfg.RateLimitMax,
			entries: map[string]rateEntry{},
		}
	}
	return &Server{
		store:       store,
		cfg:         cfg,
		rateLimiter: limiter,
		pushSchema:  mustCompilePushSchema(),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"users":  s.store.UserCount(),
		})
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 3 && parts[0] == "v1" && parts[1] == "habits" && r.Method == http.MethodGet:
		s.handleGetHabits(w, r, parts[2])
	case len(parts) == 2 && parts[0] == "v1" && parts[1] == "habits" && r.Method == http.MethodPost:
		s.handlePushHabits(w, r)
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	}
}

// handleGetHabits returns the user's stored snapshot. Users that never
// pushed get empty maps rather than 404 so fresh agents hydrate cleanly.
func (s *Server) handleGetHabits(w http.ResponseWriter, r *http.Request, userID string) {
	if !s.allow(w, "get|"+userID) {
		return
	}
	snapshot, err := s.store.Get(userID)
	if err != nil {
		if errors.Is(err, habitstore.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "bad_request", "missing user id")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, habitsPayload{
		UserID:  userID,
		Daily:   snapshot.Daily,
		Weekly:  snapshot.Weekly,
		Monthly: snapshot.Monthly,
	})
}

// handlePushHabits replaces the user's entire snapshot with the posted one.
func (s *Server) handlePushHabits(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readRequestBody(w, r)
	if !ok {
		return
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}
	if err := s.pushSchema.Validate(instance); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "body does not match habits schema: "+err.Error())
		return
	}

	var payload habitsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}
	if !s.allow(w, "push|"+payload.UserID) {
		return
	}
	if err := s.store.Replace(payload.UserID, habit.Snapshot{
		Daily:   payload.Daily,
		Weekly:  payload.Weekly,
		Monthly: payload.Monthly,
	}); err != nil {
		if errors.Is(err, habitstore.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "bad_request", "missing user id")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"userId": payload.UserID,
	})
}

func (s *Server) allow(w http.ResponseWriter, key string) bool {
	if s.rateLimiter == nil {
		return true
	}
	if s.rateLimiter.allow(key, time.Now().UTC()) {
		return true
	}
	retryAfter := int(math.Ceil(s.rateLimiter.window.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
	return false
}

func (s *Server) readRequestBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body exceeds configured limit")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "bad_request", "failed to read request body")
		return nil, false
	}
	return body, true
}

func (l *rateLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || now.After(entry.resetAt) {
		l.entries[key] = rateEntry{
			count:   1,
			resetAt: now.Add(l.window),
		}
		return true
	}
	if entry.count >= l.max {
		return false
	}
	entry.count++
	l.entries[key] = entry
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":    code,
		"message": message,
	})
}

func mustCompilePushSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(pushSchemaJSON))
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("habits-push.json", doc); err != nil {
		panic(err)
	}
	return compiler.MustCompile("habits-push.json")
}
