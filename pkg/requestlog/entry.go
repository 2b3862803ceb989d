package requestlog

import "time"

// Entry captures one request and how it was answered.
type Entry struct {
	// ID is the correlation id assigned before routing.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// Port is the listener port that received the request.
	Port int `json:"port"`

	Method      string              `json:"method"`
	Path        string              `json:"path"`
	QueryString string              `json:"queryString,omitempty"`
	Headers     map[string][]string `json:"headers,omitempty"`

	// Body holds at most MaxBodyCapture bytes of the request body.
	Body string `json:"body,omitempty"`

	RemoteAddr string `json:"remoteAddr"`

	// Kind is the strategy that answered (static, dynamic, proxy, streaming).
	// Empty when no mock matched.
	Kind string `json:"kind,omitempty"`

	// ResponseStatus is zero until the handler returns.
	ResponseStatus int   `json:"responseStatus,omitempty"`
	ResponseBytes  int64 `json:"responseBytes,omitempty"`
	DurationMs     int64 `json:"durationMs,omitempty"`

	// Completed is false while the request is in flight, e.g. an attached
	// streaming client.
	Completed bool `json:"completed"`
}

func (e *Entry) clone() *Entry {
	c := *e
	return &c
}
