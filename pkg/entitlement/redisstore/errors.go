package redisstore

import "errors"

var (
	// ErrFailedToParseConnString indicates that the Redis connection URL could not be parsed.
	ErrFailedToParseConnString = errors.New("failed to parse redis connection string")
	// ErrRedisNotReady indicates that the Redis server did not become reachable
	// within the configured retry budget.
	ErrRedisNotReady = errors.New("redis is not ready")
	// ErrFailedToReadUsage indicates that the usage hash could not be read.
	ErrFailedToReadUsage = errors.New("failed to read usage counters")
	// ErrFailedToWriteUsage indicates that a counter write did not complete.
	ErrFailedToWriteUsage = errors.New("failed to write usage counter")
)
