package mock

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidOptions is wrapped by every ValidationError.
var ErrInvalidOptions = errors.New("invalid mock options")

// ValidationError represents a validation failure with context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// Unwrap lets callers test with errors.Is(err, ErrInvalidOptions).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidOptions
}

var validHTTPMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

// headerNameRegex validates HTTP header names (RFC 7230).
var headerNameRegex = regexp.MustCompile(`^[A-Za-z0-9!#$%&'*+\-.^_\x60|~]+$`)

// Validate checks the options and normalizes Method to upper case.
//
// Options with no response, handler or proxy and no Mode are valid and
// resolve to streaming.
func (o *Options) Validate() error {
	if o.URI == "" || !strings.HasPrefix(o.URI, "/") {
		return &ValidationError{Field: "uri", Message: "must start with /"}
	}

	o.Method = strings.ToUpper(o.Method)
	if !validHTTPMethods[o.Method] {
		return &ValidationError{Field: "method", Message: fmt.Sprintf("unsupported method %q", o.Method)}
	}

	if o.Response != nil {
		if o.Response.StatusCode != 0 && (o.Response.StatusCode < 100 || o.Response.StatusCode > 599) {
			return &ValidationError{Field: "response.statusCode", Message: fmt.Sprintf("%d out of range", o.Response.StatusCode)}
		}
		for name := range o.Response.Headers {
			if !headerNameRegex.MatchString(name) {
				return &ValidationError{Field: "response.headers", Message: fmt.Sprintf("invalid header name %q", name)}
			}
		}
	}

	if o.Proxy != nil {
		if err := o.Proxy.validate(); err != nil {
			return err
		}
	}

	return o.validateMode()
}

func (p *ProxyOptions) validate() error {
	u, err := url.Parse(p.Target)
	if err != nil {
		return &ValidationError{Field: "proxy.target", Message: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "proxy.target", Message: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "proxy.target", Message: "host is required"}
	}
	if p.Timeout < 0 {
		return &ValidationError{Field: "proxy.timeout", Message: "must not be negative"}
	}
	return nil
}

// validateMode rejects an explicit Mode that the payload cannot serve.
func (o *Options) validateMode() error {
	switch o.Mode {
	case "":
		return nil
	case KindStatic:
		if o.Response == nil {
			return &ValidationError{Field: "mode", Message: "static mode requires response"}
		}
	case KindDynamic:
		if o.Handler == nil {
			return &ValidationError{Field: "mode", Message: "dynamic mode requires handler"}
		}
	case KindProxy:
		if o.Proxy == nil {
			return &ValidationError{Field: "mode", Message: "proxy mode requires proxy"}
		}
	case KindStreaming:
		if o.Response != nil || o.Handler != nil || o.Proxy != nil {
			return &ValidationError{Field: "mode", Message: "streaming mode takes no response, handler or proxy"}
		}
	default:
		return &ValidationError{Field: "mode", Message: fmt.Sprintf("unknown mode %q", o.Mode)}
	}
	return nil
}
