package guard

import (
	"context"
	"net/http"

	hospauth "github.com/mediboard/hospauth"
)

// Decision is the outcome of one guard evaluation.
type Decision uint8

const (
	// DecisionPending means the session is still initializing: render a
	// loading placeholder, do not redirect.
	DecisionPending Decision = iota
	// DecisionLoggedOut means the session was just logged out: emit the
	// one-time notification, then redirect to the login entry point.
	DecisionLoggedOut
	// DecisionLoginRedirect means no usable session exists: redirect to the
	// login entry point without a notification.
	DecisionLoginRedirect
	// DecisionUnauthorized means the session is authenticated but the role
	// is not in the required set: notify and redirect to the unauthorized
	// page.
	DecisionUnauthorized
	// DecisionAllow means the protected content may render.
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionLoggedOut:
		return "logged_out"
	case DecisionLoginRedirect:
		return "login_redirect"
	case DecisionUnauthorized:
		return "unauthorized"
	default:
		return "allow"
	}
}

// Evaluate applies the gating rules to a session snapshot. An empty
// required set means "any authenticated user". Pure: no I/O, no mutation.
func Evaluate(sess hospauth.Session, required []hospauth.Role) Decision {
	if sess.Initializing {
		return DecisionPending
	}
	if sess.LoggedOut {
		return DecisionLoggedOut
	}
	if sess.User == nil || sess.AccessToken == "" {
		return DecisionLoginRedirect
	}
	if len(required) > 0 && !roleAllowed(sess.User.Role, required) {
		return DecisionUnauthorized
	}
	return DecisionAllow
}

func roleAllowed(role hospauth.Role, required []hospauth.Role) bool {
	for _, r := range required {
		if role == r && role.Valid() {
			return true
		}
	}
	return false
}

// NoticeKind classifies guard notifications.
type NoticeKind uint8

const (
	// NoticeLoggedOut is emitted once after a logout transition.
	NoticeLoggedOut NoticeKind = iota
	// NoticeUnauthorized is emitted when a role check fails.
	NoticeUnauthorized
)

// Notice is one user-facing notification produced by the guard.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Notifier receives guard notices. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NoOpNotifier drops all notices.
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(context.Context, Notice) {}

// ChannelNotifier buffers notices on a channel for the UI layer to drain.
type ChannelNotifier struct {
	notices chan Notice
}

// NewChannelNotifier creates a ChannelNotifier with the given buffer.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelNotifier{notices: make(chan Notice, buffer)}
}

func (n *ChannelNotifier) Notify(ctx context.Context, notice Notice) {
	select {
	case n.notices <- notice:
	case <-ctx.Done():
	}
}

// Notices exposes the notifier's channel for consumption.
func (n *ChannelNotifier) Notices() <-chan Notice {
	return n.notices
}

type sessionContextKey struct{}

// SessionFromContext returns the session snapshot the middleware attached
// to an allowed request.
func SessionFromContext(ctx context.Context) (hospauth.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(hospauth.Session)
	return sess, ok
}

// Middleware renders guard decisions for a server-driven console: a 503
// with Retry-After while the session initializes, 303 redirects to the
// configured login/unauthorized entry points, and pass-through with the
// session snapshot in the request context on allow.
func Middleware(m *hospauth.Manager, notifier Notifier, required ...hospauth.Role) func(http.Handler) http.Handler {
	if notifier == nil {
		notifier = NoOpNotifier{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			routes := m.Routes()
			sess := m.Snapshot()

			switch Evaluate(sess, required) {
			case DecisionPending:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session initializing", http.StatusServiceUnavailable)

			case DecisionLoggedOut:
				// Consume resets the flag, so re-evaluations after this
				// redirect do not notify again.
				if m.ConsumeLoggedOut() {
					notifier.Notify(r.Context(), Notice{
						Kind:    NoticeLoggedOut,
						Message: "you have been logged out",
					})
				}
				http.Redirect(w, r, routes.LoginPath, http.StatusSeeOther)

			case DecisionLoginRedirect:
				http.Redirect(w, r, routes.LoginPath, http.StatusSeeOther)

			case DecisionUnauthorized:
				notifier.Notify(r.Context(), Notice{
					Kind:    NoticeUnauthorized,
					Message: "you are not authorized to view this page",
				})
				http.Redirect(w, r, routes.UnauthorizedPath, http.StatusSeeOther)

			default:
				ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}
