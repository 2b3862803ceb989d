// Package testing provides a test SDK for using portmock listeners in Go
// tests.
//
// # Basic Usage
//
//	func TestMyClient(t *testing.T) {
//	    m := mocktesting.New(t)
//
//	    m.Mock("GET", "/users/{id}").
//	        WithStatus(200).
//	        WithJSON(map[string]string{"name": "Test User"}).
//	        Reply()
//
//	    resp, err := http.Get(m.URL() + "/users/123")
//	    ...
//	    m.AssertCalled(t, "GET", "/users/123")
//	}
//
// # Streams
//
// A mock without a response streams. Chunks sent before a client connects are
// replayed to it:
//
//	m.Mock("GET", "/events").Stream().Reply()
//	m.Send("/events", "hello\n")
//
// # Request Assertions
//
//	reqs := m.Requests()
//	reqs[0].AssertJSONField(t, "$.user.name", "Ada")
//
// The server is destroyed automatically when the test completes.
package testing
