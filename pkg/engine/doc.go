// Package engine runs a set of mock listeners, one per port, that share a
// request log store, metrics and logging.
//
// Basic usage:
//
//	e := engine.New(engine.WithLogger(log))
//	defer e.Shutdown(context.Background())
//
//	l, err := e.Listen(8081)
//	if err != nil {
//		return err
//	}
//	err = l.Add(mock.Options{URI: "/events", Method: "GET"})
package engine
