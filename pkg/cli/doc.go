// Package cli implements the portmock command line.
//
// Commands:
//
//	portmock serve     Run listeners from a config file plus the admin API
//	portmock validate  Check a config file without binding ports
//	portmock chunk     Publish a chunk through a running admin API
//	portmock version   Show build information
package cli
