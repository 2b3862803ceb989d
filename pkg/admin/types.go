package admin

import "github.com/getmockd/portmock/pkg/listener"

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    int64  `json:"uptime"`
	Listeners int    `json:"listeners"`
}

// ListenerSummary describes one listener in GET /listeners.
type ListenerSummary struct {
	Port  int `json:"port"`
	Mocks int `json:"mocks"`
}

// ListenersResponse is returned by GET /listeners.
type ListenersResponse struct {
	Listeners []ListenerSummary `json:"listeners"`
	Count     int               `json:"count"`
}

// CreateListenerRequest is the body of POST /listeners. Port 0 picks a free
// port.
type CreateListenerRequest struct {
	Port int `json:"port"`
}

// ListenerResponse is returned by GET /listeners/{port}.
type ListenerResponse struct {
	Port    int               `json:"port"`
	Entries listener.Snapshot `json:"entries"`
}

// SendChunkRequest is the body of POST /listeners/{port}/chunks.
type SendChunkRequest struct {
	URI   string `json:"uri"`
	Chunk string `json:"chunk"`
}
