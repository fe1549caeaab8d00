// Package flows contains the session lifecycle transition logic, expressed
// against small dependency structs instead of the root package types. The
// root manager wires the Deps once at build time and delegates Login,
// Refresh, and Bootstrap here; the flow bodies stay testable without redis,
// HTTP, or the manager's locking.
//
// Flows never mutate session state themselves. They read collaborators,
// decide, and report a Result the manager commits — or refuses to commit
// when a logout raced the flow.
package flows
