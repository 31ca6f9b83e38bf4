package guard

import "testing"

type fakeSession struct {
	loading       bool
	authenticated bool
}

func (f fakeSession) IsLoading() bool       { return f.loading }
func (f fakeSession) IsAuthenticated() bool { return f.authenticated }

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		session fakeSession
		want    Decision
	}{
		{"loading holds the decision", fakeSession{loading: true}, Waiting},
		{"loading wins even when authenticated", fakeSession{loading: true, authenticated: true}, Waiting},
		{"authenticated is allowed", fakeSession{authenticated: true}, Allow},
		{"anonymous is redirected", fakeSession{}, RedirectToLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.session); got != tt.want {
				t.Errorf("Resolve() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecisionString(t *testing.T) {
	tests := []struct {
		d    Decision
		want string
	}{
		{Waiting, "waiting"},
		{Allow, "allow"},
		{RedirectToLogin, "redirect-to-login"},
		{Decision(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("Decision(%d).String() = %q, want %q", tt.d, got, tt.want)
		}
	}
}
