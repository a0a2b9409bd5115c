// Package config loads and validates routemock engine configuration.
//
// Configuration lives in a YAML file (routemock.yaml by default):
//
//	routeFiles: [routes/*.yaml]
//	watch: data/
//	ignore: "node_modules|\\.tmp$"
//	silent: true
//	server:
//	  addr: ":4280"
//
// ${VAR} and ${VAR:-default} references are expanded before parsing. The
// document is checked against an embedded JSON Schema and then by Validate.
// Relative paths resolve against the directory holding the config file.
package config
