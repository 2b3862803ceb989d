package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/portmock/pkg/admin"
	"github.com/getmockd/portmock/pkg/config"
	"github.com/getmockd/portmock/pkg/engine"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(BuildInfo{Version: "1.2.3", Commit: "abc", BuildDate: "today"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "portmock 1.2.3 (commit abc, built today)")

	out, err = execute(t, "", "version", "--json")
	require.NoError(t, err)
	var v VersionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "1.2.3", v.Version)
	assert.NotEmpty(t, v.Go)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
listeners:
  - port: 8081
    mocks:
      - uri: /a
        response: {body: ok}
      - uri: /s
`), 0644))

	out, err := execute(t, "", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "1 listener(s), 2 mock(s) OK")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"listeners":[{"port":1,"mocks":[{"uri":"x"}]}]}`), 0644))
	_, err = execute(t, "", "validate", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listeners[0].mocks[0]")

	_, err = execute(t, "", "validate")
	assert.Error(t, err)
}

func TestChunk(t *testing.T) {
	e := engine.New(engine.WithHost("127.0.0.1"))
	t.Cleanup(func() { _ = e.Shutdown(context.Background()) })
	srv := httptest.NewServer(admin.New(e).Handler())
	t.Cleanup(srv.Close)

	l, err := e.Listen(0)
	require.NoError(t, err)
	port := fmt.Sprint(l.Port())

	_, err = execute(t, "", "chunk", "--admin-url", srv.URL, "-p", port, "-u", "/s", "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "route_not_found")

	require.NoError(t, e.AddMock(l.Port(), configMock("/s")))

	out, err := execute(t, "", "chunk", "--admin-url", srv.URL, "-p", port, "-u", "/s", "X")
	require.NoError(t, err)
	assert.Contains(t, out, "sent 1 byte(s)")

	_, err = execute(t, "from stdin", "chunk", "--admin-url", srv.URL, "-p", port, "-u", "/s")
	require.NoError(t, err)

	entry, ok := l.Get("/s", http.MethodGet)
	require.True(t, ok)
	assert.Equal(t, [][]byte{[]byte("X"), []byte("from stdin")}, entry.Chunks())
}

func TestChunk_RequiresFlags(t *testing.T) {
	_, err := execute(t, "", "chunk", "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestRunServe_StopsOnContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mocks.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[listeners]]
port = 0

[[listeners.mocks]]
uri = "/a"
[listeners.mocks.response]
body = "ok"
`), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runServe(ctx, &serveFlags{
		configFile: path,
		host:       "127.0.0.1",
		adminHost:  "127.0.0.1",
		adminPort:  0,
		logLevel:   "error",
	}, BuildInfo{Version: "test"})
	require.NoError(t, err)
}

func TestRunServe_BadConfig(t *testing.T) {
	err := runServe(context.Background(), &serveFlags{configFile: "/nonexistent/mocks.yaml", adminPort: -1}, BuildInfo{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func configMock(uri string) config.MockConfig {
	return config.MockConfig{URI: uri, Method: http.MethodGet}
}
