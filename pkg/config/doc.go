// Package config loads typed configuration structs from environment
// variables.
//
// Each config type declares its variables with `env` struct tags and is
// parsed at most once per process; later calls return the cached value so
// every component sees the same configuration. A .env file in the working
// directory is applied before the first parse, which keeps local
// development out of the shell profile.
//
// Usage:
//
//	type RedisConfig struct {
//		URL string `env:"REDIS_URL,required"`
//	}
//
//	var cfg RedisConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// MustLoad panics on failure and suits configuration the process cannot
// start without.
package config
