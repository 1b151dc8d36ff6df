// Package redisstore implements the entitlement session store on Redis.
// Counters live under one hash per principal with a sliding TTL, so
// anonymous usage survives instance restarts and is shared across replicas
// while still expiring with the session.
package redisstore
