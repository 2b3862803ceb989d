// Package admin provides the control API of a running engine.
//
// Endpoints:
//
//	GET    /health                      - Health check
//	GET    /listeners                   - List listeners
//	POST   /listeners                   - Start a listener {"port": 8081}
//	GET    /listeners/{port}            - Snapshot of a listener's entries
//	DELETE /listeners/{port}            - Destroy a listener
//	POST   /listeners/{port}/mocks      - Register or replace a mock
//	DELETE /listeners/{port}/mocks      - Remove a mock (?uri=&method=)
//	POST   /listeners/{port}/chunks     - Publish a chunk {"uri": "/s", "chunk": "..."}
//	GET    /requests                    - List request logs
//	GET    /requests/{id}               - Get one request log
//	DELETE /requests                    - Clear request logs
//	GET    /requests/ws                 - Live request feed over WebSocket
//	GET    /metrics                     - Prometheus metrics
//
// Example:
//
//	curl -X POST http://localhost:4290/listeners/8081/mocks \
//	  -H "Content-Type: application/json" \
//	  -d '{"uri": "/events", "method": "GET"}'
//
//	curl -X POST http://localhost:4290/listeners/8081/chunks \
//	  -d '{"uri": "/events", "chunk": "hello\n"}'
package admin
