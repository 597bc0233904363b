// Package config loads dnd.json, the configuration of the dnd bridge
// server and replay tool.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 8420,
//	    "basePath": "/dnd",
//	    "allowedOrigins": ["https://app.example.com"],
//	    "scenario": "board.yaml"
//	  },
//	  "metrics": {"enabled": true, "path": "/metrics"},
//	  "tracing": {"enabled": true},
//	  "upload": {
//	    "backend": "s3",
//	    "maxFileSize": 52428800,
//	    "allowedTypes": ["image/*"],
//	    "s3": {"bucket": "drops", "prefix": "incoming/", "region": "eu-west-1"}
//	  },
//	  "log": {"level": "debug", "format": "json"}
//	}
//
// Every field is optional; New returns the defaults.
package config
