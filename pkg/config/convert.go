package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/getmockd/portmock/pkg/mock"
	"github.com/getmockd/portmock/pkg/script"
)

// Validate checks every listener and mock and reports all problems at once.
func (f *File) Validate() error {
	var errs []error
	ports := make(map[int]int)

	for i, l := range f.Listeners {
		if l.Port < 0 || l.Port > 65535 {
			errs = append(errs, fmt.Errorf("listeners[%d]: port %d out of range", i, l.Port))
		}
		if l.Port != 0 {
			if prev, dup := ports[l.Port]; dup {
				errs = append(errs, fmt.Errorf("listeners[%d]: port %d already used by listeners[%d]", i, l.Port, prev))
			}
			ports[l.Port] = i
		}
		for j, m := range l.Mocks {
			if _, err := m.ToOptions(); err != nil {
				errs = append(errs, fmt.Errorf("listeners[%d].mocks[%d]: %w", i, j, err))
			}
		}
	}
	return errors.Join(errs...)
}

// ToOptions converts the config into validated mock options, compiling the
// script when one is set.
func (m *MockConfig) ToOptions() (mock.Options, error) {
	opts := mock.Options{
		URI:    m.URI,
		Method: m.Method,
		Mode:   mock.Kind(m.Mode),
	}
	if opts.Method == "" {
		opts.Method = "GET"
	}

	set := 0
	if m.Response != nil {
		set++
		opts.Response = &mock.Response{
			StatusCode: m.Response.StatusCode,
			Headers:    m.Response.Headers,
			Body:       []byte(m.Response.Body),
		}
	}
	if m.Script != "" {
		set++
		s, err := script.Compile(m.Script)
		if err != nil {
			return mock.Options{}, err
		}
		opts.Handler = s.Handler()
	}
	if m.Proxy != nil {
		set++
		p, err := m.Proxy.toOptions()
		if err != nil {
			return mock.Options{}, err
		}
		opts.Proxy = p
	}
	if set > 1 {
		return mock.Options{}, &mock.ValidationError{Field: "mock", Message: "only one of response, script and proxy may be set"}
	}

	if len(m.Chunks) > 0 && (opts.Kind() != mock.KindStreaming || opts.Key().Method != "GET") {
		return mock.Options{}, &mock.ValidationError{Field: "chunks", Message: "chunks require a streaming GET mock"}
	}

	if err := opts.Validate(); err != nil {
		return mock.Options{}, err
	}
	return opts, nil
}

func (p *ProxyConfig) toOptions() (*mock.ProxyOptions, error) {
	out := &mock.ProxyOptions{
		Target:       p.Target,
		ChangeOrigin: p.ChangeOrigin,
		XForward:     p.XForward,
		Headers:      p.Headers,
	}
	if p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return nil, &mock.ValidationError{Field: "proxy.timeout", Message: err.Error()}
		}
		out.Timeout = d
	}
	return out, nil
}
