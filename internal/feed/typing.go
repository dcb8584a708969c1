package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/pulseboard/pulseboard/internal/heatmap"
)

// TypingSourceName identifies the typing-practice history feed.
const TypingSourceName = "typing"

// TypingWindowDays is the trailing window materialized from the sparse
// upstream calendar, ending today inclusive.
const TypingWindowDays = 126

// The upstream profile page inlines its state as a script-embedded JSON
// blob rather than queryable DOM. These patterns are an external contract
// that can silently break; extraction failure is a first-class branch.
var (
	typingCalendarPattern = regexp.MustCompile(`"(?:testsByDays|testActivity|calendar)"\s*:\s*(\[[^\]]*\])`)
	typingTotalPattern    = regexp.MustCompile(`"(?:completedTests|totalTests|testsCompleted)"\s*:\s*(\d+)`)
)

// TypingSource scrapes the typing-practice profile page for the per-day
// test calendar and the cumulative test counter. Counts are classified
// through the shared level thresholds; the upstream supplies none.
type TypingSource struct {
	profileURL string
	httpClient *http.Client
	cache      Cache
	logger     Logger
	now        func() time.Time
}

func NewTypingSource(profileURL string, httpClient *http.Client, cache Cache, logger Logger) *TypingSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &TypingSource{
		profileURL: strings.TrimSpace(profileURL),
		httpClient: httpClient,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *TypingSource) Name() string {
	return TypingSourceName
}

// Fetch returns the trailing 126-day typing calendar, falling back to the
// cached or synthetic snapshot on any upstream failure.
func (s *TypingSource) Fetch(ctx context.Context) Snapshot {
	snapshot, err := s.fetchRemote(ctx)
	if err != nil {
		return degrade(s.cache, s.logger, TypingSourceName, err, func() Snapshot {
			return FallbackTyping(s.now())
		})
	}
	saveToCache(s.cache, s.logger, snapshot)
	return snapshot
}

func (s *TypingSource) fetchRemote(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.profileURL, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Snapshot{}, fmt.Errorf("%w: http %d", ErrFetch, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	countsByDate, total, err := extractTypingHistory(body)
	if err != nil {
		return Snapshot{}, err
	}
	return s.materialize(countsByDate, total), nil
}

// extractTypingHistory pulls the embedded calendar and cumulative counter
// out of the profile HTML. It walks script elements with the HTML tokenizer
// and applies the extraction patterns to each script body.
func extractTypingHistory(page []byte) (map[string]int, int, error) {
	tokenizer := html.NewTokenizer(strings.NewReader(string(page)))
	var counts map[string]int
	total := -1
	inScript := false
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if counts == nil {
				return nil, 0, fmt.Errorf("%w: calendar pattern matched nothing", ErrShapeChanged)
			}
			if total < 0 {
				total = 0
			}
			return counts, total, nil
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			inScript = string(name) == "script"
		case html.EndTagToken:
			inScript = false
		case html.TextToken:
			if !inScript {
				continue
			}
			text := string(tokenizer.Text())
			if counts == nil {
				if match := typingCalendarPattern.FindStringSubmatch(text); match != nil {
					parsed, err := parseTypingCalendar(match[1])
					if err != nil {
						return nil, 0, err
					}
					counts = parsed
				}
			}
			if total < 0 {
				if match := typingTotalPattern.FindStringSubmatch(text); match != nil {
					value, err := strconv.Atoi(match[1])
					if err == nil {
						total = value
					}
				}
			}
		}
	}
}

type typingCalendarEntry struct {
	T     int64  `json:"t"`
	C     int    `json:"c"`
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func parseTypingCalendar(raw string) (map[string]int, error) {
	var entries []typingCalendarEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: embedded calendar: %v", ErrParse, err)
	}
	counts := make(map[string]int, len(entries))
	for _, entry := range entries {
		switch {
		case entry.T > 0:
			date := time.UnixMilli(entry.T).UTC().Format("2006-01-02")
			counts[date] += entry.C
		case entry.Date != "":
			counts[entry.Date] += entry.Count
		}
	}
	return counts, nil
}

// materialize expands the sparse calendar into the fixed trailing window,
// defaulting absent dates to zero tests.
func (s *TypingSource) materialize(countsByDate map[string]int, total int) Snapshot {
	today := s.now()
	start := today.AddDate(0, 0, -(TypingWindowDays - 1))
	days := make([]heatmap.ActivityDay, 0, TypingWindowDays)
	for i := 0; i < TypingWindowDays; i++ {
		date := start.AddDate(0, 0, i)
		count := countsByDate[date.Format("2006-01-02")]
		days = append(days, heatmap.ActivityDay{
			Date:  time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
			Count: count,
			Level: heatmap.LevelForCount(count),
		})
	}
	return Snapshot{
		Source:    TypingSourceName,
		Days:      days,
		Total:     total,
		Today:     days[len(days)-1].Count,
		FetchedAt: today.UTC(),
	}
}
