// Package config provides configuration parsing for docroutes.
//
// The configuration is stored in docroutes.yaml next to the site build.
// This package handles loading, environment overrides and validation.
//
// # Configuration File Structure
//
//	manifests:
//	  - build/routes.json
//	  - s3://docs-site/extra-routes.yaml
//	server:
//	  address: ":8080"
//	  shutdownTimeout: 10s
//	  websocket:
//	    enabled: true
//	    path: /_ws
//	metrics:
//	  enabled: true
//	  path: /metrics
//	tracing:
//	  enabled: false
//	log:
//	  level: info
//	  format: json
//	s3:
//	  region: eu-central-1
//	  endpoint: http://localhost:9000
//	  pathStyle: true
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Server.Address)
package config
