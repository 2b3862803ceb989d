package listener

import (
	"net/http"

	"github.com/getmockd/portmock/pkg/mock"
	"github.com/getmockd/portmock/pkg/stream"
)

// Entry is the current state of one (uri, method) mock.
type Entry struct {
	options     mock.Options
	kind        mock.Kind
	handler     http.Handler
	broadcaster *stream.Broadcaster
}

// Options returns the options the entry was added with.
func (e *Entry) Options() mock.Options {
	return e.options
}

// Kind returns the resolved strategy.
func (e *Entry) Kind() mock.Kind {
	return e.kind
}

// Handler returns the resolved strategy handler.
func (e *Entry) Handler() http.Handler {
	return e.handler
}

// ClientsCount returns the number of attached streaming clients.
func (e *Entry) ClientsCount() int {
	return e.broadcaster.ClientCount()
}

// Chunks returns a copy of the replay buffer.
func (e *Entry) Chunks() [][]byte {
	return e.broadcaster.Chunks()
}

// EntrySnapshot is the debug view of an entry. Attached clients appear only
// as a count.
type EntrySnapshot struct {
	Options      OptionsView `json:"options"`
	Chunks       []string    `json:"chunks"`
	Handler      mock.Kind   `json:"handler"`
	ClientsCount int         `json:"clientsCount"`
}

// OptionsView is the serializable part of mock.Options.
type OptionsView struct {
	URI      string             `json:"uri"`
	Method   string             `json:"method"`
	Response *ResponseView      `json:"response,omitempty"`
	Proxy    *mock.ProxyOptions `json:"proxy,omitempty"`
	Scripted bool               `json:"scripted,omitempty"`
}

// ResponseView renders a static response with a text body.
type ResponseView struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body,omitempty"`
}

// Snapshot maps uri to method to entry view.
type Snapshot map[string]map[string]EntrySnapshot

func (e *Entry) snapshot() EntrySnapshot {
	chunks := e.broadcaster.Chunks()
	text := make([]string, len(chunks))
	for i, c := range chunks {
		text[i] = string(c)
	}

	view := OptionsView{
		URI:      e.options.URI,
		Method:   e.options.Method,
		Proxy:    e.options.Proxy,
		Scripted: e.options.Handler != nil,
	}
	if r := e.options.Response; r != nil {
		view.Response = &ResponseView{
			StatusCode: r.Status(),
			Headers:    r.Headers,
			Body:       string(r.Body),
		}
	}

	return EntrySnapshot{
		Options:      view,
		Chunks:       text,
		Handler:      e.kind,
		ClientsCount: e.broadcaster.ClientCount(),
	}
}
