package ui

import (
	"net/url"
	"slices"
	"strings"

	"ontomaint/internal/domain"
)

// queryChoice returns the value of key when it is one of allowed. Empty,
// "All" and unknown values mean no filter.
func queryChoice(q url.Values, key string, allowed []string) *string {
	v := strings.TrimSpace(q.Get(key))
	if v == "" || v == domain.AllOption || !slices.Contains(allowed, v) {
		return nil
	}
	return &v
}
