// Package config loads and validates the NGSI bridge configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file, then
// NGSIBRIDGE_* environment variable overrides. Load returns an error if
// the resulting configuration is invalid, so the rest of the application
// can assume a valid Config.
//
// Example config.yaml:
//
//	server:
//	  host: "0.0.0.0"
//	  port: 4041
//	ngsi:
//	  dialect: "v2"
//	database:
//	  path: "./data/ngsi-bridge.db"
//	logging:
//	  level: "info"
//	  format: "json"
package config
