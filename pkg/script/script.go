// Package script compiles expression-based responders for dynamic mocks.
//
// A script is an expr-lang expression evaluated once per request against an
// environment describing the request:
//
//	method, path, query, headers, vars   request line, query, headers, route vars
//	body                                  raw body as a string
//	json                                  body parsed as JSON (nil if not JSON)
//	jsonPath(doc, path)                   first JSONPath match in doc, or nil
//
// The result decides the response:
//
//   - a map with any of "status", "headers", "body" keys builds the response
//     (a non-string body is rendered as JSON)
//   - a string is sent as a 200 text body
//   - anything else is rendered as a 200 JSON body
//
// Example:
//
//	{"status": 201, "body": {"id": vars.id, "name": jsonPath(json, "$.name")}}
package script

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/gorilla/mux"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/getmockd/portmock/pkg/mock"
)

// MaxBodySize caps how much of the request body a script can see.
const MaxBodySize = 10 * 1024 * 1024

// ErrEmptyScript is returned by Compile for blank sources.
var ErrEmptyScript = errors.New("script is empty")

// Script is a compiled responder.
type Script struct {
	program *vm.Program
}

// env is the evaluation environment. Field tags are the names visible to
// scripts.
type env struct {
	Method  string            `expr:"method"`
	Path    string            `expr:"path"`
	Query   map[string]string `expr:"query"`
	Headers map[string]string `expr:"headers"`
	Vars    map[string]string `expr:"vars"`
	Body    string            `expr:"body"`
	JSON    any               `expr:"json"`

	JSONPath func(doc any, path string) any `expr:"jsonPath"`
}

// Compile parses and type-checks src.
func Compile(src string) (*Script, error) {
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmptyScript
	}
	program, err := expr.Compile(src, expr.Env(env{}))
	if err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}
	return &Script{program: program}, nil
}

// Eval runs the script for r and returns its raw result.
func (s *Script) Eval(r *http.Request) (any, error) {
	e, err := newEnv(r)
	if err != nil {
		return nil, err
	}
	return expr.Run(s.program, e)
}

// Handler returns a mock handler evaluating the script per request.
// Evaluation errors are answered with 500 and the error text.
func (s *Script) Handler() mock.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := s.Eval(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeResult(w, out)
	}
}

func newEnv(r *http.Request) (env, error) {
	e := env{
		Method:   r.Method,
		Path:     r.URL.Path,
		Query:    flatten(r.URL.Query()),
		Headers:  flatten(r.Header),
		Vars:     mux.Vars(r),
		JSONPath: jsonPath,
	}
	if e.Vars == nil {
		e.Vars = map[string]string{}
	}

	if r.Body != nil {
		data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize))
		if err != nil {
			return e, fmt.Errorf("read body: %w", err)
		}
		e.Body = string(data)
		if len(data) > 0 {
			// Non-JSON bodies simply leave json nil.
			if doc, err := oj.Parse(data); err == nil {
				e.JSON = doc
			}
		}
	}
	return e, nil
}

func flatten(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func jsonPath(doc any, path string) any {
	x, err := jp.ParseString(path)
	if err != nil {
		return nil
	}
	if res := x.Get(doc); len(res) > 0 {
		return res[0]
	}
	return nil
}

func writeResult(w http.ResponseWriter, out any) {
	switch v := out.(type) {
	case map[string]any:
		if isResponseShape(v) {
			writeShaped(w, v)
			return
		}
		writeJSON(w, http.StatusOK, v)
	case string:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, v)
	case nil:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusOK, v)
	}
}

func isResponseShape(m map[string]any) bool {
	for k := range m {
		if k != "status" && k != "headers" && k != "body" {
			return false
		}
	}
	return len(m) > 0
}

func writeShaped(w http.ResponseWriter, m map[string]any) {
	status := http.StatusOK
	switch s := m["status"].(type) {
	case int:
		status = s
	case int64:
		status = int(s)
	case float64:
		status = int(s)
	}

	if headers, ok := m["headers"].(map[string]any); ok {
		for k, v := range headers {
			w.Header().Set(k, fmt.Sprint(v))
		}
	}

	switch body := m["body"].(type) {
	case nil:
		w.WriteHeader(status)
	case string:
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	default:
		writeJSON(w, status, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, oj.JSON(v))
}
