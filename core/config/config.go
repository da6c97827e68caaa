package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type -> any (a T value)
)

// Load fills v from the environment, loading a .env file from the working
// directory on first use. The first successful load of each type is cached
// and copied into later calls.
func Load[T any](v *T) error {
	if v == nil {
		return fmt.Errorf("config: nil target")
	}

	dotenvOnce.Do(func() {
		// a missing .env file is normal outside development
		_ = godotenv.Load()
	})

	typ := reflect.TypeFor[T]()
	if cached, ok := cache.Load(typ); ok {
		*v = cached.(T)
		return nil
	}

	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", typ, err)
	}

	actual, _ := cache.LoadOrStore(typ, cfg)
	*v = actual.(T)
	return nil
}

// MustLoad is like Load but panics on failure. Intended for process startup.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(err)
	}
}
