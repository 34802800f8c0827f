// README: Review aggregate; severity, tags, and ratings rules.
package review

import (
	"sort"
	"strings"
	"time"

	"medreview/internal/types"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Ratings are optional 1-5 sub-scores; Overall is derived, never supplied.
type Ratings struct {
	Accuracy     int     `json:"accuracy"`
	Clarity      int     `json:"clarity"`
	Thoroughness int     `json:"thoroughness"`
	Overall      float64 `json:"overall"`
}

// Overall is the mean of the sub-scores rounded to one decimal.
func overall(accuracy, clarity, thoroughness int) float64 {
	sum := float64(accuracy + clarity + thoroughness)
	return float64(int(sum/3*10+0.5)) / 10
}

func validScore(v int) bool { return v >= 1 && v <= 5 }

type Review struct {
	ID              types.ID
	OrderID         types.ID
	ReviewerID      types.ID
	Title           string
	Content         string
	Recommendations string
	Severity        Severity
	IsComplete      bool
	ReviewTimeMin   *int
	Tags            []string
	Ratings         *Ratings
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// addTag inserts a normalized tag, keeping the list a sorted set.
func addTag(tags []string, tag string) []string {
	t := normalizeTag(tag)
	if t == "" {
		return tags
	}
	for _, existing := range tags {
		if existing == t {
			return tags
		}
	}
	tags = append(tags, t)
	sort.Strings(tags)
	return tags
}

func removeTag(tags []string, tag string) []string {
	t := normalizeTag(tag)
	out := tags[:0]
	for _, existing := range tags {
		if existing != t {
			out = append(out, existing)
		}
	}
	return out
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
