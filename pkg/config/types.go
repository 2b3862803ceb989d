package config

// File is the root of a configuration file.
type File struct {
	Listeners []ListenerConfig `json:"listeners" yaml:"listeners" toml:"listeners"`
}

// ListenerConfig describes one port and the mocks served on it.
type ListenerConfig struct {
	Port int `json:"port" yaml:"port" toml:"port"`

	// Host is the bind address. Empty binds all interfaces.
	Host string `json:"host,omitempty" yaml:"host,omitempty" toml:"host,omitempty"`

	Mocks []MockConfig `json:"mocks,omitempty" yaml:"mocks,omitempty" toml:"mocks,omitempty"`
}

// MockConfig describes one mock entry. At most one of Response, Script and
// Proxy may be set; with none the entry streams.
type MockConfig struct {
	URI    string `json:"uri" yaml:"uri" toml:"uri"`
	Method string `json:"method" yaml:"method" toml:"method"`

	// Mode optionally pins the strategy: static, dynamic, proxy or streaming.
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty" toml:"mode,omitempty"`

	Response *ResponseConfig `json:"response,omitempty" yaml:"response,omitempty" toml:"response,omitempty"`

	// Script is an expression evaluated per request, see package script.
	Script string `json:"script,omitempty" yaml:"script,omitempty" toml:"script,omitempty"`

	Proxy *ProxyConfig `json:"proxy,omitempty" yaml:"proxy,omitempty" toml:"proxy,omitempty"`

	// Chunks pre-seed the replay buffer of a streaming GET entry.
	Chunks []string `json:"chunks,omitempty" yaml:"chunks,omitempty" toml:"chunks,omitempty"`
}

// ResponseConfig is a canned response.
type ResponseConfig struct {
	StatusCode int               `json:"statusCode,omitempty" yaml:"statusCode,omitempty" toml:"statusCode,omitempty"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`
	Body       string            `json:"body,omitempty" yaml:"body,omitempty" toml:"body,omitempty"`
}

// ProxyConfig configures forwarding to an upstream.
type ProxyConfig struct {
	Target       string            `json:"target" yaml:"target" toml:"target"`
	ChangeOrigin bool              `json:"changeOrigin,omitempty" yaml:"changeOrigin,omitempty" toml:"changeOrigin,omitempty"`
	XForward     bool              `json:"xfwd,omitempty" yaml:"xfwd,omitempty" toml:"xfwd,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`

	// Timeout is a Go duration string such as "5s".
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}
