// Package password implements the credential verifier used at login:
// Argon2id hashing in PHC string format, constant-time verification, and
// temporary secret generation. The engine never sees hashing internals, it
// only consumes the Verify/Hash/GenerateTemporary contract.
package password
