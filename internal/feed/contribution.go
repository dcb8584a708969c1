package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/pulseboard/pulseboard/internal/heatmap"
)

// ContributionSourceName identifies the code-contribution calendar feed.
const ContributionSourceName = "contributions"

const contributionSchemaJSON = `{
	"type": "object",
	"required": ["contributions"],
	"properties": {
		"total": {"type": "object"},
		"contributions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["date", "count", "level"],
				"properties": {
					"date": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
					"count": {"type": "integer", "minimum": 0},
					"level": {"type": "integer"}
				}
			}
		}
	}
}`

// ContributionSource fetches the pre-leveled contribution calendar for the
// trailing year. Upstream supplies one entry per day with its own 0..4
// level, used as-is after clamping.
type ContributionSource struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	logger     Logger
	now        func() time.Time
	schema     *jsonschema.Schema
}

type contributionDocument struct {
	Total         map[string]int    `json:"total"`
	Contributions []contributionDay `json:"contributions"`
}

type contributionDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

func NewContributionSource(baseURL string, httpClient *http.Client, cache Cache, logger Logger) *ContributionSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &ContributionSource{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
		schema:     mustCompileSchema("contributions.json", contributionSchemaJSON),
	}
}

func (s *ContributionSource) Name() string {
	return ContributionSourceName
}

// Fetch returns the trailing-year contribution calendar, falling back to
// the cached or synthetic snapshot on any upstream failure.
func (s *ContributionSource) Fetch(ctx context.Context) Snapshot {
	snapshot, err := s.fetchRemote(ctx)
	if err != nil {
		return degrade(s.cache, s.logger, ContributionSourceName, err, func() Snapshot {
			return FallbackContributions(s.now())
		})
	}
	saveToCache(s.cache, s.logger, snapshot)
	return snapshot
}

func (s *ContributionSource) fetchRemote(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?y=last", nil)
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

	decoded, err := jsonschema.UnmarshalJSON(strings.NewReader(string(body)))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := s.schema.Validate(decoded); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var doc contributionDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(doc.Contributions) == 0 {
		return Snapshot{}, fmt.Errorf("%w: empty contribution list", ErrParse)
	}

	days := make([]heatmap.ActivityDay, 0, len(doc.Contributions))
	for _, entry := range doc.Contributions {
		date, err := time.Parse("2006-01-02", entry.Date)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: bad date %q", ErrParse, entry.Date)
		}
		count := entry.Count
		if count < 0 {
			count = 0
		}
		days = append(days, heatmap.ActivityDay{
			Date:  date,
			Count: count,
			Level: heatmap.ClampLevel(entry.Level),
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	total := doc.Total["lastYear"]
	if total == 0 {
		for _, day := range days {
			total += day.Count
		}
	}
	return Snapshot{
		Source:    ContributionSourceName,
		Days:      days,
		Total:     total,
		Today:     days[len(days)-1].Count,
		FetchedAt: s.now().UTC(),
	}, nil
}

func mustCompileSchema(name, text string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded schema %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("invalid embedded schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("invalid embedded schema %s: %v", name, err))
	}
	return schema
}
