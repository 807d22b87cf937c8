package mirror

import "strings"

// Condition classifies a fetched upstream page.
type Condition int

const (
	ConditionNormal Condition = iota
	ConditionNotFound
	ConditionRateLimited
)

const (
	notFoundTitleMarker = "Page not found"
	// RateLimitTitle is the exact title GitHub serves when it throttles a client.
	RateLimitTitle = "Rate limit · GitHub"
)

// String returns the stable identifier used in logs and the visit ledger.
func (c Condition) String() string {
	switch c {
	case ConditionNotFound:
		return "not_found"
	case ConditionRateLimited:
		return "rate_limited"
	default:
		return "normal"
	}
}

// Classify derives the page condition from the upstream document title.
func Classify(title string) Condition {
	switch {
	case strings.Contains(title, notFoundTitleMarker):
		return ConditionNotFound
	case title == RateLimitTitle:
		return ConditionRateLimited
	default:
		return ConditionNormal
	}
}
