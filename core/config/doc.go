// Package config loads typed configuration from environment variables.
//
// A .env file in the working directory is loaded once on first use, then
// struct fields are filled by github.com/caarlos0/env using `env` and
// `envDefault` tags. Each type is parsed once and cached; later loads of the
// same type return the cached value even if the environment changed.
//
//	import "github.com/dmitrymomot/sessionkit/core/config"
//
//	var cfg session.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or panic on failure during startup
//	var rdb redis.Config
//	config.MustLoad(&rdb)
package config
