package script

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, src string, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	s, err := Compile(src)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler()(rec, r)
	return rec
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("   ")
	assert.ErrorIs(t, err, ErrEmptyScript)

	_, err = Compile("method +")
	assert.Error(t, err)

	_, err = Compile("unknownVariable")
	assert.Error(t, err, "undeclared names are rejected at compile time")
}

func TestHandler_StringResult(t *testing.T) {
	rec := serve(t, `"hello " + query.name`, httptest.NewRequest(http.MethodGet, "/greet?name=ada", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello ada", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestHandler_ResponseShape(t *testing.T) {
	src := `{"status": 201, "headers": {"X-Method": method}, "body": {"name": jsonPath(json, "$.user.name"), "path": path}}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"user":{"name":"ada"}}`))

	rec := serve(t, src, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("X-Method"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"name":"ada","path":"/users"}`, rec.Body.String())
}

func TestHandler_ShapeWithStringBody(t *testing.T) {
	rec := serve(t, `{"status": 404, "body": "missing " + path}`, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "missing /nope", rec.Body.String())
}

func TestHandler_PlainMapIsJSON(t *testing.T) {
	rec := serve(t, `{"ok": true, "count": len(body)}`, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abc")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"count":3}`, rec.Body.String())
}

func TestHandler_RouteVars(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "42"})

	rec := serve(t, `"user " + vars.id`, req)
	assert.Equal(t, "user 42", rec.Body.String())
}

func TestHandler_NonJSONBody(t *testing.T) {
	rec := serve(t, `json == nil ? "raw:" + body : "json"`, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not json")))
	assert.Equal(t, "raw:not json", rec.Body.String())
}

func TestHandler_NilResult(t *testing.T) {
	rec := serve(t, `nil`, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_RuntimeError(t *testing.T) {
	rec := serve(t, `[1, 2][len(body) + 5]`, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestJSONPath(t *testing.T) {
	doc := map[string]any{"a": []any{map[string]any{"b": int64(1)}}}
	assert.Equal(t, int64(1), jsonPath(doc, "$.a[0].b"))
	assert.Nil(t, jsonPath(doc, "$.missing"))
	assert.Nil(t, jsonPath(doc, "$[[["))
}
