// Package store persists access and refresh tokens across console restarts.
//
// The store is a dumb persistence boundary: it never validates, decodes, or
// interprets a token. Validation belongs to the token codec and the session
// manager. Writes are durable before the call returns, so the bootstrap
// sequence can recover session state without a network round trip first.
//
// Two implementations ship: [RedisStore] for durable deployments and
// [MemoryStore] for tests and single-process embedding. The refresh token is
// written with its own time-to-live taken from the expiry the authentication
// service issued it with; the backend enforces it the way a cookie expiry
// would.
package store
