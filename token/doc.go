// Package token decodes access-token payloads for the console session manager.
//
// The console is a relying client of the hospital authentication service: it
// never signs tokens and holds no verification key, so [Codec.Decode] reads the
// payload segment without signature verification. Trust in the token comes from
// the authenticated channel it arrived on, not from this package.
//
// # Fail-safe expiry
//
// [Codec.IsExpired] treats every undecodable token as expired. Callers see a
// single rule for bad credentials: expired → attempt refresh → logout if the
// refresh fails too. No path proceeds with a malformed credential.
package token
