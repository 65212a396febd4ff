// Package config loads lazyload project configuration.
//
// The configuration lives in lazyload.json, lazyload.yaml or lazyload.yml at
// the project root. Fields left out keep their defaults.
//
// # Configuration File Structure
//
//	throttle: 50ms
//	threshold: 100
//	loadingSrc: /img/spinner.gif
//	polling: true
//	server:
//	  address: ":8080"
//	  readTimeout: 10s
//	  writeTimeout: 10s
//	  allowedOrigins: ["https://example.com"]
//	  metricsPath: /metrics
//	metrics:
//	  enabled: true
//	  namespace: lazyload
//	tracing:
//	  enabled: false
//	log:
//	  level: info
//	  format: text
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine := lazyload.New(doc, cfg.EngineOptions()...)
package config
