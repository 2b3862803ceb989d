package testing

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// RequestLog is a received request, captured for assertions.
type RequestLog struct {
	Method string
	Path   string
	// Headers holds the first value of each request header.
	Headers     map[string]string
	Body        string
	QueryString string

	// Kind is the strategy that answered, empty when nothing matched.
	Kind string
	// Status is zero while the request is still in flight.
	Status int
}

// AssertJSONBody asserts that the body is JSON equal to expected. Strings and
// byte slices are parsed; other values are JSON encoded first.
func (r *RequestLog) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	want, err := normalizeJSON(expected)
	if err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}
	got, err := oj.ParseString(r.Body)
	if err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}
	if canonical(got) != canonical(want) {
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			oj.JSON(want, 2), oj.JSON(got, 2))
	}
}

// AssertBody asserts that the body equals expected.
func (r *RequestLog) AssertBody(t testing.TB, expected string) {
	t.Helper()
	if r.Body != expected {
		t.Errorf("request body does not match\nexpected: %q\nactual: %q", expected, r.Body)
	}
}

// AssertBodyContains asserts that the body contains substr.
func (r *RequestLog) AssertBodyContains(t testing.TB, substr string) {
	t.Helper()
	if !strings.Contains(r.Body, substr) {
		t.Errorf("request body does not contain %q\nbody: %s", substr, r.Body)
	}
}

// AssertHeader asserts the value of a request header. The name is matched
// case-insensitively.
func (r *RequestLog) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()

	actual, ok := r.header(key)
	if !ok {
		t.Errorf("request does not have header %q", key)
		return
	}
	if actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertHeaderExists asserts that the request carried the header.
func (r *RequestLog) AssertHeaderExists(t testing.TB, key string) {
	t.Helper()
	if _, ok := r.header(key); !ok {
		t.Errorf("request does not have header %q", key)
	}
}

func (r *RequestLog) header(key string) (string, bool) {
	if v, ok := r.Headers[key]; ok {
		return v, true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// AssertQueryParam asserts the first value of a query parameter.
func (r *RequestLog) AssertQueryParam(t testing.TB, key, expected string) {
	t.Helper()

	values, _ := url.ParseQuery(r.QueryString)
	if !values.Has(key) {
		t.Errorf("request does not have query parameter %q\nquery: %s", key, r.QueryString)
		return
	}
	if actual := values.Get(key); actual != expected {
		t.Errorf("query parameter %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertMethod asserts the request method.
func (r *RequestLog) AssertMethod(t testing.TB, expected string) {
	t.Helper()
	if !strings.EqualFold(r.Method, expected) {
		t.Errorf("method mismatch\nexpected: %s\nactual: %s", expected, r.Method)
	}
}

// AssertPath asserts the request path.
func (r *RequestLog) AssertPath(t testing.TB, expected string) {
	t.Helper()
	if r.Path != expected {
		t.Errorf("path mismatch\nexpected: %s\nactual: %s", expected, r.Path)
	}
}

// JSONField returns the first value at a JSONPath expression such as
// "$.user.name" or "items[0].id", or nil when absent.
func (r *RequestLog) JSONField(path string) any {
	doc, err := oj.ParseString(r.Body)
	if err != nil {
		return nil
	}
	if !strings.HasPrefix(path, "$") {
		path = "$." + path
	}
	x, err := jp.ParseString(path)
	if err != nil {
		return nil
	}
	if res := x.Get(doc); len(res) > 0 {
		return res[0]
	}
	return nil
}

// AssertJSONField asserts the value at a JSONPath expression. Numbers are
// compared by value, so 42 matches both int and float encodings.
func (r *RequestLog) AssertJSONField(t testing.TB, path string, expected any) {
	t.Helper()

	actual := r.JSONField(path)
	if actual == nil && expected != nil {
		t.Errorf("JSON field %q not found in body: %s", path, r.Body)
		return
	}
	encoded, err := json.Marshal(expected)
	if err != nil {
		t.Errorf("failed to encode expected value: %v", err)
		return
	}
	want, err := oj.Parse(encoded)
	if err != nil {
		t.Errorf("failed to encode expected value: %v", err)
		return
	}
	if canonical(actual) != canonical(want) {
		t.Errorf("JSON field %q mismatch\nexpected: %s\nactual: %s", path, canonical(want), canonical(actual))
	}
}

// normalizeJSON runs v through the same parser as the request body.
func normalizeJSON(v any) (any, error) {
	var data []byte
	switch x := v.(type) {
	case string:
		data = []byte(x)
	case []byte:
		data = x
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return oj.Parse(data)
}

func canonical(v any) string {
	return oj.JSON(v, &oj.Options{Sort: true})
}
