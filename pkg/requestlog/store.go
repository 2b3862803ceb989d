package requestlog

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// MaxBodyCapture is the number of request body bytes kept per entry.
const MaxBodyCapture = 10 * 1024

// DefaultMaxEntries is used when NewMemoryStore gets a non-positive size.
const DefaultMaxEntries = 1000

// Filter selects entries in List. Zero fields match everything.
type Filter struct {
	Port   int
	Kind   string
	Method string

	// Path is a prefix match.
	Path string

	// StatusCode matches completed entries only.
	StatusCode int

	Limit  int
	Offset int
}

// Subscriber receives a copy of every new or completed entry.
type Subscriber chan *Entry

// MemoryStore is a Sink that keeps a bounded FIFO history.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    []*Entry
	byID       map[string]*Entry
	maxEntries int

	subMu       sync.RWMutex
	subscribers map[Subscriber]struct{}
}

// NewMemoryStore creates a store holding at most maxEntries entries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		entries:     make([]*Entry, 0, maxEntries),
		byID:        make(map[string]*Entry),
		maxEntries:  maxEntries,
		subscribers: make(map[Subscriber]struct{}),
	}
}

// OnRequest implements Sink.
func (s *MemoryStore) OnRequest(id string, port int, r *http.Request) {
	entry := &Entry{
		ID:          id,
		Timestamp:   time.Now(),
		Port:        port,
		Method:      r.Method,
		Path:        r.URL.Path,
		QueryString: r.URL.RawQuery,
		Headers:     r.Header.Clone(),
		Body:        captureBody(r),
		RemoteAddr:  r.RemoteAddr,
	}

	s.mu.Lock()
	if len(s.entries) >= s.maxEntries {
		delete(s.byID, s.entries[0].ID)
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)
	s.byID[id] = entry
	snapshot := entry.clone()
	s.mu.Unlock()

	s.notify(snapshot)
}

// OnClassify implements Sink.
func (s *MemoryStore) OnClassify(id, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.byID[id]; ok {
		e.Kind = kind
	}
}

// OnResponse implements Sink.
func (s *MemoryStore) OnResponse(id string, status int, bytes int64, d time.Duration) {
	s.mu.Lock()
	e, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	e.ResponseStatus = status
	e.ResponseBytes = bytes
	e.DurationMs = d.Milliseconds()
	e.Completed = true
	snapshot := e.clone()
	s.mu.Unlock()

	s.notify(snapshot)
}

// Get returns a copy of the entry with the given id, or nil.
func (s *MemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.byID[id]; ok {
		return e.clone()
	}
	return nil
}

// List returns copies of matching entries, newest first.
func (s *MemoryStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if filter != nil && !filter.Match(e) {
			continue
		}
		result = append(result, e.clone())
	}

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(result) {
				return []*Entry{}
			}
			result = result[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(result) {
			result = result[:filter.Limit]
		}
	}
	return result
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops every entry. In-flight requests are no longer tracked.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]*Entry, 0, s.maxEntries)
	s.byID = make(map[string]*Entry)
}

// Subscribe returns a channel receiving new and completed entries, and an
// unsubscribe function. Slow subscribers miss entries rather than block.
func (s *MemoryStore) Subscribe() (Subscriber, func()) {
	ch := make(Subscriber, 100)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, ch)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *MemoryStore) notify(e *Entry) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for sub := range s.subscribers {
		select {
		case sub <- e:
		default:
		}
	}
}

// Match reports whether e passes the filter. Limit and Offset are ignored.
func (f *Filter) Match(e *Entry) bool {
	if f.Port != 0 && e.Port != f.Port {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Method != "" && !strings.EqualFold(e.Method, f.Method) {
		return false
	}
	if f.Path != "" && !strings.HasPrefix(e.Path, f.Path) {
		return false
	}
	if f.StatusCode != 0 && (!e.Completed || e.ResponseStatus != f.StatusCode) {
		return false
	}
	return true
}

// captureBody reads up to MaxBodyCapture bytes and puts them back in front of
// the unread remainder so handlers still see the full body.
func captureBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyCapture))
	if len(head) > 0 || err != nil {
		r.Body = &replayBody{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}
	}
	return string(head)
}

type replayBody struct {
	io.Reader
	io.Closer
}
