package domain

import (
	"encoding/base64"
	"strconv"
)

// Page size bounds for history listings.
const (
	DefaultMaxResults = 50
	MaxMaxResults     = 500
)

// PageRequest selects one page of a listing. PageToken is opaque to callers.
type PageRequest struct {
	MaxResults int
	PageToken  string
}

// Offset is the row offset carried by the token; 0 when absent or malformed.
func (p PageRequest) Offset() int {
	if p.PageToken == "" {
		return 0
	}
	raw, err := base64.RawURLEncoding.DecodeString(p.PageToken)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Limit is MaxResults clamped to [1, MaxMaxResults], DefaultMaxResults when unset.
func (p PageRequest) Limit() int {
	switch {
	case p.MaxResults <= 0:
		return DefaultMaxResults
	case p.MaxResults > MaxMaxResults:
		return MaxMaxResults
	}
	return p.MaxResults
}

// EncodePageToken encodes offset. The first page has no token.
func EncodePageToken(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// NextPageToken returns the token of the page after [offset, offset+limit),
// or "" when total is exhausted.
func NextPageToken(offset, limit int, total int64) string {
	next := offset + limit
	if int64(next) >= total {
		return ""
	}
	return EncodePageToken(next)
}
