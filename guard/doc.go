// Package guard gates rendering of protected console views on the current
// session snapshot and a required role set.
//
// [Evaluate] is pure: given the same [hospauth.Session] and role set it
// always produces the same [Decision], with no network calls and no state
// mutation. The stateful part of the contract — emitting the "logged out"
// notification exactly once — lives in [Middleware], which consumes the
// manager's logged-out flag atomically before redirecting.
//
// This package translates decisions into HTTP semantics. It makes no
// authorization decisions of its own beyond role membership; everything
// else is the session manager's verdict, frozen in the snapshot.
package guard
