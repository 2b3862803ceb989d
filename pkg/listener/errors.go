package listener

import "errors"

var (
	// ErrRouteNotFound is returned by SendChunk when no GET entry exists for
	// the uri.
	ErrRouteNotFound = errors.New("route not found")

	// ErrDestroyed is returned by operations on a destroyed listener.
	ErrDestroyed = errors.New("listener destroyed")

	// ErrInvalidRoute is returned by Add for uri templates the router rejects.
	ErrInvalidRoute = errors.New("invalid route template")
)
