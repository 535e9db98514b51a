// Package config loads typed configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
// a .env file in the working directory is applied once, best-effort, and
// each configuration struct type is parsed at most once per process with
// the result cached by type name.
//
// # Usage
//
//	type RedisConfig struct {
//	    Addr   string `env:"ARCANA_REDIS_ADDR" envDefault:"localhost:6379"`
//	    Prefix string `env:"ARCANA_REDIS_PREFIX" envDefault:"arcana"`
//	}
//
//	var cfg RedisConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatalf("parsing env: %v", err)
//	}
//
// Sentinel errors ErrParsingConfig and ErrNilPointer compare with
// errors.Is.
package config
