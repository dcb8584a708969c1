package habitsync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pulseboard/pulseboard/internal/habit"
)

func TestFetchHabitsDecodesSnapshot(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"dailyHabits":   map[string]bool{"Drink Water_2025_3_10": true},
			"weeklyHabits":  map[string]bool{"Laundry_2025_3_W1": true},
			"monthlyHabits": map[string]bool{"Pay Bills_2025_3": true},
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.Client())
	snapshot, err := client.FetchHabits(context.Background(), "user_abc")
	if err != nil {
		t.Fatalf("FetchHabits: %v", err)
	}
	if gotPath != "/v1/habits/user_abc" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !snapshot.Daily["Drink Water_2025_3_10"] {
		t.Fatalf("daily snapshot missing entry: %v", snapshot.Daily)
	}
	if !snapshot.Weekly["Laundry_2025_3_W1"] || !snapshot.Monthly["Pay Bills_2025_3"] {
		t.Fatalf("snapshot missing entries: %+v", snapshot)
	}
}

func TestPushHabitsSendsFullSnapshot(t *testing.T) {
	var gotBody map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/habits" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.Client())
	err := client.PushHabits(context.Background(), "user_abc", habit.Snapshot{
		Daily: habit.Completions{"Drink Water_2025_3_10": true},
	})
	if err != nil {
		t.Fatalf("PushHabits: %v", err)
	}

	var userID string
	if err := json.Unmarshal(gotBody["userId"], &userID); err != nil || userID != "user_abc" {
		t.Fatalf("unexpected userId payload %s (%v)", gotBody["userId"], err)
	}
	for _, field := range []string{"dailyHabits", "weeklyHabits", "monthlyHabits"} {
		if _, ok := gotBody[field]; !ok {
			t.Fatalf("push body missing %s: %v", field, gotBody)
		}
	}
}

func TestPushHabitsSurfacesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"code":"rate_limited","message":"too many requests"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.Client())
	err := client.PushHabits(context.Background(), "user_abc", habit.Snapshot{})
	if err == nil {
		t.Fatalf("expected error")
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests || httpErr.Code != "rate_limited" {
		t.Fatalf("unexpected error detail: %+v", httpErr)
	}
}

func TestFetchHabitsEscapesUserID(t *testing.T) {
	var gotRawPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRawPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"dailyHabits":{},"weeklyHabits":{},"monthlyHabits":{}}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.Client())
	if _, err := client.FetchHabits(context.Background(), "user/odd id"); err != nil {
		t.Fatalf("FetchHabits: %v", err)
	}
	if gotRawPath != "/v1/habits/user%2Fodd%20id" {
		t.Fatalf("unexpected escaped path %q", gotRawPath)
	}
}
