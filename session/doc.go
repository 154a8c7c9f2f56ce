// Package session defines the session record, its lifecycle transitions and
// the Store interface the engine persists through, together with Redis and
// Postgres implementations. Sessions never hold raw tokens; only SHA-256
// hashes are stored, and every lookup goes through a hash index.
package session
