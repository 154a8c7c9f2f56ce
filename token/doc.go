// Package token implements the signed token codec: issuing access/refresh
// pairs, verifying signatures and expiry, and extracting the principal
// claims the engine cross-checks against server-side session state.
package token
