package testing

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	stdtesting "testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTB records failures instead of failing the enclosing test.
type fakeTB struct {
	stdtesting.TB
	failed bool
	msgs   []string
}

func (f *fakeTB) Helper() {}

func (f *fakeTB) Errorf(format string, args ...any) {
	f.failed = true
	f.msgs = append(f.msgs, fmt.Sprintf(format, args...))
}

func get(t *stdtesting.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNew(t *stdtesting.T) {
	m := New(t)
	assert.True(t, strings.HasPrefix(m.URL(), "http://127.0.0.1:"))
	assert.NotZero(t, m.Listener().Port())
}

func TestMockStatic(t *stdtesting.T) {
	m := New(t)

	m.Mock("GET", "/test").
		WithStatus(201).
		WithHeader("X-Test", "yes").
		WithBody("hello").
		Reply()

	resp, body := get(t, m.URL()+"/test")
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "yes", resp.Header.Get("X-Test"))
	assert.Equal(t, "hello", body)
}

func TestMockWithJSON(t *stdtesting.T) {
	m := New(t)

	type User struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	m.Mock("GET", "/users/{id}").RespondJSON(User{ID: "123", Name: "Test User"}).Reply()

	resp, body := get(t, m.URL()+"/users/123")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"id":"123","name":"Test User"}`, body)
}

func TestMockRespondHelpers(t *stdtesting.T) {
	m := New(t)

	m.Mock("GET", "/missing").RespondNotFound().Reply()
	m.Mock("POST", "/items").RespondCreated(map[string]int{"id": 1}).Reply()
	m.Mock("DELETE", "/items").RespondNoContent().Reply()

	resp, _ := get(t, m.URL()+"/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err := http.Post(m.URL()+"/items", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodDelete, m.URL()+"/items", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestMockWithHandler(t *stdtesting.T) {
	m := New(t)

	m.Mock("GET", "/echo").WithHandler(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.URL.Query().Get("q"))
	}).Reply()

	_, body := get(t, m.URL()+"/echo?q=ping")
	assert.Equal(t, "ping", body)
}

func TestMockWithScript(t *stdtesting.T) {
	m := New(t)

	m.Mock("GET", "/hello").WithScript(`"hi " + query.name`).Reply()

	_, body := get(t, m.URL()+"/hello?name=ada")
	assert.Contains(t, body, "hi ada")
}

func TestMockBuilderError(t *stdtesting.T) {
	m := New(t)

	b := m.Mock("GET", "/bad").WithJSON(make(chan int))
	assert.Error(t, b.Err())

	b = m.Mock("GET", "/bad").WithScript("")
	assert.Error(t, b.Err())

	b = m.Mock("GET", "/bad").WithProxyTimeout(time.Second)
	assert.Error(t, b.Err())
}

func TestMockProxyTo(t *stdtesting.T) {
	upstream := New(t)
	upstream.Mock("GET", "/data").WithBody("from upstream").Reply()

	m := New(t)
	m.Mock("GET", "/data").ProxyTo(upstream.URL()).WithProxyTimeout(5 * time.Second).Reply()

	resp, body := get(t, m.URL()+"/data")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "from upstream", body)
	upstream.AssertCalledTimes(t, "GET", "/data", 1)
}

func TestStreamAndSend(t *stdtesting.T) {
	m := New(t)

	m.Mock("GET", "/events").Stream().Reply()
	m.Send("/events", "first\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, m.URL()+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "first\n", line)

	m.Send("/events", map[string]int{"n": 2})
	buf := make([]byte, len(`{"n":2}`))
	_, err = io.ReadFull(reader, buf)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":2}`, string(buf))
}

func TestAssertCalled(t *stdtesting.T) {
	m := New(t)
	m.Mock("GET", "/ping").WithBody("pong").Reply()
	get(t, m.URL()+"/ping")
	get(t, m.URL()+"/ping")

	m.AssertCalled(t, "GET", "/ping")
	m.AssertCalledTimes(t, "get", "/ping", 2)
	m.AssertNotCalled(t, "POST", "/ping")
	m.AssertNotCalled(t, "GET", "/pin")

	fake := &fakeTB{}
	m.AssertCalled(fake, "GET", "/never")
	assert.True(t, fake.failed)

	fake = &fakeTB{}
	m.AssertCalledTimes(fake, "GET", "/ping", 3)
	assert.True(t, fake.failed)
}

func TestReset(t *stdtesting.T) {
	m := New(t)
	m.Mock("GET", "/ping").WithBody("pong").Reply()
	get(t, m.URL()+"/ping")

	m.Reset()

	assert.Empty(t, m.Requests())
	assert.Empty(t, m.Listener().Snapshot())

	resp, _ := get(t, m.URL()+"/ping")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequestsAssertions(t *stdtesting.T) {
	m := New(t)
	m.Mock("POST", "/users").RespondCreated(map[string]string{"ok": "yes"}).Reply()

	req, _ := http.NewRequest(http.MethodPost, m.URL()+"/users?source=test",
		strings.NewReader(`{"user":{"name":"Ada","age":36},"tags":["a","b"]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	r := reqs[0]

	r.AssertMethod(t, "POST")
	r.AssertPath(t, "/users")
	r.AssertHeader(t, "content-type", "application/json")
	r.AssertHeaderExists(t, "Content-Type")
	r.AssertQueryParam(t, "source", "test")
	r.AssertBodyContains(t, `"Ada"`)
	r.AssertJSONBody(t, map[string]any{
		"user": map[string]any{"name": "Ada", "age": 36},
		"tags": []string{"a", "b"},
	})
	r.AssertJSONField(t, "$.user.name", "Ada")
	r.AssertJSONField(t, "user.age", 36)
	r.AssertJSONField(t, "$.tags[1]", "b")
	assert.Nil(t, r.JSONField("$.user.missing"))
	assert.Equal(t, "static", r.Kind)

	fake := &fakeTB{}
	r.AssertJSONField(fake, "$.user.name", "Bob")
	r.AssertHeader(fake, "X-Missing", "")
	r.AssertBody(fake, "nope")
	assert.True(t, fake.failed)
	assert.Len(t, fake.msgs, 3)
}
