// Package pgstore implements the authoritative remote entitlement store on
// PostgreSQL using pgx. Counter increments are single atomic statements so
// concurrent operations never lose a count. Schema migrations are embedded
// and applied with goose.
package pgstore
