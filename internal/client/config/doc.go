// Package config loads runtime configuration for the notekeeper CLI.
//
// Sources, in increasing precedence: built-in defaults, an optional JSON file
// selected with -c or -config, then command-line flags.
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "cache_file": "notekeeper.db",
//	  "request_timeout": "5s"
//	}
package config
