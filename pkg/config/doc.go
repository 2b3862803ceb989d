// Package config loads listener and mock definitions from YAML, TOML or JSON
// files and converts them into mock options.
//
// A minimal YAML file:
//
//	listeners:
//	  - port: 8081
//	    mocks:
//	      - uri: /health
//	        method: GET
//	        response:
//	          statusCode: 200
//	          body: ok
//	      - uri: /events
//	        method: GET
//	        chunks: ["hello\n"]
//
// ${VAR} and ${VAR:-default} references are expanded from the environment
// before parsing.
package config
