// Package board is the agent-side surface of the dashboard: it renders the
// embedded page, answers widget queries over local state, applies toggles
// through the sync engine, and streams change notifications to connected
// pages.
package board

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pulseboard/pulseboard/internal/feed"
	"github.com/pulseboard/pulseboard/internal/habit"
	"github.com/pulseboard/pulseboard/internal/habitsync"
	"github.com/pulseboard/pulseboard/internal/heatmap"
)

type Logger interface {
	Printf(format string, args ...any)
}

type Server struct {
	store  *habit.Store
	engine *habitsync.Engine
	feeds  *FeedState
	hub    *streamHub
	logger Logger
	now    func() time.Time

	catalogMu sync.RWMutex
	catalog   habit.Catalog
}

func NewServer(store *habit.Store, engine *habitsync.Engine, catalog habit.Catalog, feeds *FeedState, logger Logger) *Server {
	if feeds == nil {
		feeds = NewFeedState()
	}
	s := &Server{
		store:   store,
		engine:  engine,
		feeds:   feeds,
		hub:     newStreamHub(logger),
		logger:  logger,
		now:     time.Now,
		catalog: catalog,
	}
	store.Subscribe(func() {
		s.hub.broadcast(streamEvent{Type: "habits", At: s.now()})
	})
	return s
}

// SetCatalog swaps the habit catalog, typically from the config watcher.
func (s *Server) SetCatalog(catalog habit.Catalog) {
	s.catalogMu.Lock()
	s.catalog = catalog
	s.catalogMu.Unlock()
	s.hub.broadcast(streamEvent{Type: "catalog", At: s.now()})
}

func (s *Server) currentCatalog() habit.Catalog {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	return s.catalog
}

// NotifyFeed records a refreshed feed snapshot and wakes stream listeners.
func (s *Server) NotifyFeed(snapshot feed.Snapshot) {
	s.feeds.Set(snapshot)
	s.hub.broadcast(streamEvent{Type: "feed", Source: snapshot.Source, At: s.now()})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		s.handleDashboard(w, r)
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "health":
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "phase": s.phase()})
	case len(parts) == 2 && parts[0] == "api" && parts[1] == "widgets" && r.Method == http.MethodGet:
		s.handleWidgets(w, r)
	case len(parts) == 2 && parts[0] == "api" && parts[1] == "toggle" && r.Method == http.MethodPost:
		s.handleToggle(w, r)
	case len(parts) == 2 && parts[0] == "api" && parts[1] == "stream" && r.Method == http.MethodGet:
		s.handleStream(w, r)
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	}
}

func (s *Server) phase() string {
	if s.engine == nil {
		return string(habitsync.PhaseHydrated)
	}
	return string(s.engine.Phase())
}

type monthMeta struct {
	Year   int    `json:"year"`
	Month0 int    `json:"month0"`
	Label  string `json:"label"`
	Days   int    `json:"days"`
}

type progressWidget struct {
	MonthlyPercent   int `json:"monthlyPercent"`
	WeeklyPercent    int `json:"weeklyPercent"`
	ChecklistPercent int `json:"checklistPercent"`
}

type heatmapWidget struct {
	Weeks     []heatmap.WeekRow `json:"weeks"`
	Total     int               `json:"total"`
	Today     int               `json:"today"`
	Synthetic bool              `json:"synthetic"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

type completionsWidget struct {
	Daily   habit.Completions `json:"daily"`
	Weekly  habit.Completions `json:"weekly"`
	Monthly habit.Completions `json:"monthly"`
}

type widgetsResponse struct {
	GeneratedAt time.Time                `json:"generatedAt"`
	Phase       string                   `json:"phase"`
	Month       monthMeta                `json:"month"`
	Catalog     habit.Catalog            `json:"catalog"`
	Completions completionsWidget        `json:"completions"`
	Progress    progressWidget           `json:"progress"`
	DailySeries []habit.DaySeriesPoint   `json:"dailySeries"`
	Weekdays    []habit.WeekdayPoint     `json:"weekdays"`
	RowTotals   map[string]int           `json:"rowTotals"`
	Heatmaps    map[string]heatmapWidget `json:"heatmaps"`
}

func (s *Server) handleWidgets(w http.ResponseWriter, r *http.Request) {
	anchor := s.now()
	catalog := s.currentCatalog()
	agg := habit.NewAggregator(s.store, catalog)

	resp := widgetsResponse{
		GeneratedAt: anchor,
		Phase:       s.phase(),
		Month: monthMeta{
			Year:   anchor.Year(),
			Month0: int(anchor.Month()) - 1,
			Label:  anchor.Format("January 2006"),
			Days:   daysInMonth(anchor),
		},
		Catalog: catalog,
		Completions: completionsWidget{
			Daily:   s.store.Get(habit.Daily),
			Weekly:  s.store.Get(habit.Weekly),
			Monthly: s.store.Get(habit.Monthly),
		},
		Progress: progressWidget{
			MonthlyPercent:   agg.MonthlyProgressPercent(anchor),
			WeeklyPercent:    agg.WeeklyProgressPercent(anchor),
			ChecklistPercent: agg.MonthlyChecklistPercent(anchor),
		},
		DailySeries: agg.DailySeries(anchor),
		Weekdays:    agg.WeekdayPercentages(anchor),
		RowTotals:   agg.HabitRowTotals(anchor),
		Heatmaps:    map[string]heatmapWidget{},
	}
	for _, snapshot := range s.feeds.All() {
		resp.Heatmaps[snapshot.Source] = heatmapWidget{
			Weeks:     heatmap.Bucketize(snapshot.Days, heatmap.DefaultWindowWeeks),
			Total:     snapshot.Total,
			Today:     snapshot.Today,
			Synthetic: snapshot.Synthetic,
			FetchedAt: snapshot.FetchedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type toggleRequest struct {
	Habit      string `json:"habit"`
	Resolution string `json:"resolution"`
	Year       int    `json:"year"`
	Month0     int    `json:"month0"`
	Period     int    `json:"period"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}
	if strings.TrimSpace(req.Habit) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "missing habit")
		return
	}
	resolution, err := habit.ParseResolution(req.Resolution)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "unknown resolution")
		return
	}

	anchor := s.now()
	if req.Year != 0 {
		if req.Month0 < 0 || req.Month0 > 11 {
			writeError(w, http.StatusBadRequest, "bad_request", "month0 out of range")
			return
		}
		anchor = time.Date(req.Year, time.Month(req.Month0+1), 1, 0, 0, 0, 0, anchor.Location())
	}
	if err := s.validatePeriod(resolution, anchor, req.Period); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if s.engine == nil {
		s.store.Toggle(req.Habit, resolution, anchor, req.Period)
	} else if err := s.engine.Toggle(req.Habit, resolution, anchor, req.Period); err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}

	key := habit.Encode(req.Habit, resolution, anchor, req.Period)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"key":       key,
		"completed": s.store.Get(resolution)[key],
	})
}

func (s *Server) validatePeriod(resolution habit.Resolution, anchor time.Time, period int) error {
	switch resolution {
	case habit.Daily:
		if period < 1 || period > daysInMonth(anchor) {
			return fmt.Errorf("day %d out of range for %s", period, anchor.Format("2006-01"))
		}
	case habit.Weekly:
		if period < 0 || period >= habit.WeeksPerMonth {
			return fmt.Errorf("week slot %d out of range", period)
		}
	}
	return nil
}

func daysInMonth(anchor time.Time) int {
	firstOfMonth := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":    code,
		"message": message,
	})
}
