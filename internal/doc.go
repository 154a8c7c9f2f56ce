// Package internal contains helper utilities that are intentionally private to
// authgate, including the deterministic token hashing used for session lookup
// keys and secure random secret generation.
package internal
