package admin

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/getmockd/portmock/pkg/requestlog"
)

// parsePositiveInt returns a parsed int only when the value is a valid positive integer.
func parsePositiveInt(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseNonNegativeInt returns a parsed int only when the value is a valid non-negative integer.
func parseNonNegativeInt(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// parseRequestFilter builds a request log filter from query parameters.
// Malformed numbers are ignored.
func parseRequestFilter(q url.Values) *requestlog.Filter {
	f := &requestlog.Filter{
		Kind:   q.Get("kind"),
		Method: strings.ToUpper(q.Get("method")),
		Path:   q.Get("path"),
	}
	if n, ok := parsePositiveInt(q.Get("port")); ok {
		f.Port = n
	}
	if n, ok := parsePositiveInt(q.Get("status")); ok {
		f.StatusCode = n
	}
	if n, ok := parsePositiveInt(q.Get("limit")); ok {
		f.Limit = n
	}
	if n, ok := parseNonNegativeInt(q.Get("offset")); ok {
		f.Offset = n
	}
	return f
}
