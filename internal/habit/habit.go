package habit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// Resolution is the time grain a habit is tracked at.
type Resolution string

const (
	Daily   Resolution = "daily"
	Weekly  Resolution = "weekly"
	Monthly Resolution = "monthly"
)

// Resolutions lists every grain in display order.
func Resolutions() []Resolution {
	return []Resolution{Daily, Weekly, Monthly}
}

func ParseResolution(raw string) (Resolution, error) {
	switch Resolution(strings.ToLower(strings.TrimSpace(raw))) {
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	default:
		return "", fmt.Errorf("%w: unknown resolution %q", ErrInvalidInput, raw)
	}
}

// WeeksPerMonth is the fixed weekly slot count (W0..W3).
const WeeksPerMonth = 4

// Catalog is the fixed habit list per resolution. Immutable at runtime
// except for wholesale replacement on config reload.
type Catalog struct {
	Daily   []string `json:"daily"`
	Weekly  []string `json:"weekly"`
	Monthly []string `json:"monthly"`
}

// DefaultCatalog returns the built-in habit lists.
func DefaultCatalog() Catalog {
	return Catalog{
		Daily: []string{
			"Wake Up on Time", "Walk 2 Miles", "Read 1 Chapter", "Drink Water", "Code 1 Hour",
		},
		Weekly: []string{
			"Laundry", "Change Sheets", "Plan the Week", "Grocery Shopping",
		},
		Monthly: []string{
			"Pay Bills", "Review Goals", "Deep Clean", "Backup Files",
		},
	}
}

// Habits returns the catalog slice for a resolution.
func (c Catalog) Habits(resolution Resolution) []string {
	switch resolution {
	case Daily:
		return c.Daily
	case Weekly:
		return c.Weekly
	case Monthly:
		return c.Monthly
	default:
		return nil
	}
}

// LoadCatalog reads a catalog JSON file. Empty sections fall back to the
// built-in lists so a partial file stays usable.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	var loaded Catalog
	if err := json.Unmarshal(data, &loaded); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	defaults := DefaultCatalog()
	if len(loaded.Daily) == 0 {
		loaded.Daily = defaults.Daily
	}
	if len(loaded.Weekly) == 0 {
		loaded.Weekly = defaults.Weekly
	}
	if len(loaded.Monthly) == 0 {
		loaded.Monthly = defaults.Monthly
	}
	return loaded, nil
}
