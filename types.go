package hospauth

import (
	"context"
	"time"
)

// Role is the closed set of console roles. Route requirements and menu
// branching match on this enumeration instead of raw role-name strings, so
// adding a role is a compile-time-visible change.
type Role uint8

const (
	// RoleUnknown is the zero value. A profile carrying it never passes a
	// role-restricted guard.
	RoleUnknown Role = iota
	// RoleSystemAdmin administers the whole deployment.
	RoleSystemAdmin
	// RoleHospitalAdmin administers a single hospital.
	RoleHospitalAdmin
	// RoleDoctor is a clinician account.
	RoleDoctor
	// RoleNurse is a nursing account.
	RoleNurse
	// RoleStaff is a non-clinical hospital staff account.
	RoleStaff

	roleCount
)

var roleNames = [roleCount]string{
	RoleUnknown:       "unknown",
	RoleSystemAdmin:   "system_admin",
	RoleHospitalAdmin: "hospital_admin",
	RoleDoctor:        "doctor",
	RoleNurse:         "nurse",
	RoleStaff:         "staff",
}

// String returns the canonical wire name of the role.
func (r Role) String() string {
	if r >= roleCount {
		return roleNames[RoleUnknown]
	}
	return roleNames[r]
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	return r > RoleUnknown && r < roleCount
}

// ParseRole maps a wire role name onto the closed enumeration. Unrecognized
// names map to RoleUnknown rather than an error: an unknown role must fail
// role checks, not crash session establishment.
func ParseRole(name string) Role {
	for r := RoleSystemAdmin; r < roleCount; r++ {
		if roleNames[r] == name {
			return r
		}
	}
	return RoleUnknown
}

// Hospital is one hospital a profile is attached to.
type Hospital struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserProfile is the console-side account record. It is owned by the
// [Manager]: refreshed wholesale on login and refresh, patched in place via
// [Manager.UpdateProfile] on profile edits.
type UserProfile struct {
	ID        string     `json:"id"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Role      Role       `json:"-"`
	RoleName  string     `json:"roleName"`
	Hospitals []Hospital `json:"hospitals"`
}

// ProfilePatch carries the fields of a profile edit. Nil fields are left
// untouched by the merge; tokens and role are never patched through it.
type ProfilePatch struct {
	FullName  *string
	Email     *string
	Phone     *string
	Hospitals []Hospital
}

// TokenResponse is the payload both the authentication endpoint and the
// refresh endpoint answer with. All three fields are required; the manager
// refuses to build a session from a partial response.
type TokenResponse struct {
	Token                  string    `json:"token"`
	RefreshToken           string    `json:"refreshToken"`
	RefreshTokenExpiryTime time.Time `json:"refreshTokenExpiryTime"`
}

// API is the contract of the external authentication collaborators. The
// apiclient subpackage provides the HTTP implementation; tests substitute
// fakes.
type API interface {
	Login(ctx context.Context, email, password string) (*TokenResponse, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenResponse, error)
	GetUserByID(ctx context.Context, userID string) (*UserProfile, error)
}

// SessionState is the coarse lifecycle state derived from a [Session]
// snapshot.
type SessionState uint8

const (
	// StateUninitialized means Bootstrap has not started.
	StateUninitialized SessionState = iota
	// StateRefreshing means Bootstrap or a refresh is in flight.
	StateRefreshing
	// StateAuthenticated means a decoded token and a profile are present.
	StateAuthenticated
	// StateUnauthenticated is the terminal logged-out state.
	StateUnauthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRefreshing:
		return "refreshing"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is an immutable snapshot of the manager's state. Invariant: User
// is non-nil only when AccessToken is non-empty; the manager enforces this
// on every transition.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *UserProfile
	Initializing bool
	LoggedOut    bool

	state SessionState
}

// State returns the lifecycle state the snapshot was taken in.
func (s Session) State() SessionState {
	return s.state
}
