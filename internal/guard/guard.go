// Package guard gates navigation into the protected screens based on
// session state.
package guard

// Session is the slice of the session store the guard consumes.
type Session interface {
	IsLoading() bool
	IsAuthenticated() bool
}

// Decision is the guard's verdict for a protected route.
type Decision int

const (
	// Waiting means session restore has not finished: render a neutral
	// waiting state and make no redirect decision yet. Deciding early
	// would flash a redirect to login before the restore completes.
	Waiting Decision = iota
	// Allow renders the protected subtree.
	Allow
	// RedirectToLogin sends the user to the public login screen. The
	// redirect replaces history so back-navigation cannot re-enter a
	// protected URL.
	RedirectToLogin
)

// String returns the decision name, for logs.
func (d Decision) String() string {
	switch d {
	case Waiting:
		return "waiting"
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect-to-login"
	default:
		return "unknown"
	}
}

// Resolve maps the session state to a Decision. While the session is
// loading the answer is always Waiting; once resolved, exactly one of
// Allow or RedirectToLogin.
func Resolve(s Session) Decision {
	if s.IsLoading() {
		return Waiting
	}
	if s.IsAuthenticated() {
		return Allow
	}
	return RedirectToLogin
}
