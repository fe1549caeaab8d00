// Package hospauth implements the session and authentication lifecycle of the
// hospital-management administrative console: JWT access-token decoding, durable
// access/refresh token storage, a single-authority session manager (login,
// refresh, logout, bootstrap), and role-based route guarding.
//
// The package is designed for concurrent callers: Manager methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
// Concurrent Refresh calls are coalesced into a single collaborator round trip,
// and a logout always wins over any refresh still in flight.
//
// # Architecture boundaries
//
// hospauth is the public surface. It exposes [Manager], [Builder], [Config],
// [Session], value types (UserProfile, Role, TokenResponse), the in-process
// [Metrics] counters, and the [AuditSink] contract. Flow orchestration lives
// under internal/ and is never exported. Token persistence lives in the store
// subpackage, payload decoding in token, and route gating in guard.
//
// # What this package must NOT do
//
//   - Issue or sign tokens. The console is a relying client; the authentication
//     service (reached through [API]) is the only issuer.
//   - Talk to the network outside of Login, Refresh, and Bootstrap. Guard
//     evaluation is pure over a [Session] snapshot.
//   - Leave a half-authenticated session behind: every mutating operation is
//     fail-closed, and a rejected refresh token always ends in a full logout.
package hospauth
