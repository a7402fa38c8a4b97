package authstate_test

import (
	"context"
	"errors"
	"testing"

	"course_review/internal/authstate"
	"course_review/internal/domain"
)

// ---- fake session store ----

type fakeSessions struct {
	user        *domain.User // nil = no live session
	getErr      error
	loginErr    error
	destroyErr  error
	destroyed   int
	createdAcct []string
}

func (f *fakeSessions) CreateAccount(ctx context.Context, email, password, name string) (domain.User, error) {
	f.createdAcct = append(f.createdAcct, email)
	f.user = &domain.User{ID: "u-new", Name: name, Email: email}
	return *f.user, nil
}

func (f *fakeSessions) CreateSession(ctx context.Context, email, password string) (domain.Session, error) {
	if f.loginErr != nil {
		return domain.Session{}, f.loginErr
	}
	if f.user == nil {
		f.user = &domain.User{ID: "u1", Name: "Ana", Email: email}
	}
	return domain.Session{ID: "s1", UserID: f.user.ID}, nil
}

func (f *fakeSessions) GetCurrentUser(ctx context.Context) (domain.User, error) {
	if f.getErr != nil {
		return domain.User{}, f.getErr
	}
	if f.user == nil {
		return domain.User{}, domain.ErrNotFound
	}
	return *f.user, nil
}

func (f *fakeSessions) DestroySession(ctx context.Context) error {
	f.destroyed++
	if f.destroyErr != nil {
		return f.destroyErr
	}
	f.user = nil
	return nil
}

func (f *fakeSessions) FederatedLoginURL(provider, successURL, failureURL string) (string, error) {
	return "https://auth.example.com/oauth2/" + provider, nil
}

// ---- tests ----

func TestProjection_StartsUnknown(t *testing.T) {
	p := authstate.New(&fakeSessions{})
	if got := p.Status(); got != authstate.StatusUnknown {
		t.Fatalf("status = %v, want unknown", got)
	}
	if _, ok := p.CurrentUser(); ok {
		t.Fatalf("no user should be visible while unknown")
	}
}

func TestProjection_Init_NoSessionBecomesAnonymous(t *testing.T) {
	p := authstate.New(&fakeSessions{}) // no live session
	p.Init(context.Background())
	if got := p.Status(); got != authstate.StatusAnonymous {
		t.Fatalf("status = %v, want anonymous", got)
	}
}

func TestProjection_Init_TransportErrorAlsoAnonymous(t *testing.T) {
	p := authstate.New(&fakeSessions{getErr: errors.New("boom")})
	p.Init(context.Background())
	if got := p.Status(); got != authstate.StatusAnonymous {
		t.Fatalf("status = %v, want anonymous", got)
	}
}

func TestProjection_Init_ExistingSessionBecomesAuthenticated(t *testing.T) {
	p := authstate.New(&fakeSessions{user: &domain.User{ID: "u1", Name: "Ana"}})
	p.Init(context.Background())
	if got := p.Status(); got != authstate.StatusAuthenticated {
		t.Fatalf("status = %v, want authenticated", got)
	}
	u, ok := p.CurrentUser()
	if !ok || u.ID != "u1" {
		t.Fatalf("unexpected user: %+v ok=%v", u, ok)
	}
}

func TestProjection_Init_RunsOnlyOnce(t *testing.T) {
	fs := &fakeSessions{}
	p := authstate.New(fs)
	p.Init(context.Background()) // anonymous

	// a session appearing later must not flip the state via Init
	fs.user = &domain.User{ID: "u1"}
	p.Init(context.Background())
	if got := p.Status(); got != authstate.StatusAnonymous {
		t.Fatalf("second Init must be a no-op, got %v", got)
	}
}

func TestProjection_LoginThenLogout(t *testing.T) {
	fs := &fakeSessions{}
	p := authstate.New(fs)
	p.Init(context.Background())

	u, err := p.Login(context.Background(), "ana@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Email != "ana@example.com" || p.Status() != authstate.StatusAuthenticated {
		t.Fatalf("unexpected state after login: %+v %v", u, p.Status())
	}

	p.Logout(context.Background())
	if p.Status() != authstate.StatusAnonymous {
		t.Fatalf("status after logout = %v", p.Status())
	}
	if _, ok := p.CurrentUser(); ok {
		t.Fatalf("user still visible after logout")
	}
}

func TestProjection_Logout_LocallyEffectiveWhenRemoteFails(t *testing.T) {
	fs := &fakeSessions{user: &domain.User{ID: "u1"}, destroyErr: errors.New("network down")}
	p := authstate.New(fs)
	p.Init(context.Background())

	p.Logout(context.Background())
	if fs.destroyed != 1 {
		t.Fatalf("expected one destroy attempt, got %d", fs.destroyed)
	}
	if p.Status() != authstate.StatusAnonymous {
		t.Fatalf("logout must be locally effective, status = %v", p.Status())
	}
}

func TestProjection_Register_LogsStraightIn(t *testing.T) {
	fs := &fakeSessions{}
	p := authstate.New(fs)

	u, err := p.Register(context.Background(), "new@example.com", "pw", "Newbie")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Name != "Newbie" || p.Status() != authstate.StatusAuthenticated {
		t.Fatalf("unexpected state after register: %+v %v", u, p.Status())
	}
	if len(fs.createdAcct) != 1 {
		t.Fatalf("expected one account creation, got %d", len(fs.createdAcct))
	}
}

func TestProjection_Resume_AdoptsSessionState(t *testing.T) {
	fs := &fakeSessions{}
	p := authstate.New(fs)
	p.Init(context.Background()) // anonymous

	// federated login completed out of band
	fs.user = &domain.User{ID: "u-oauth", Name: "Via Google"}
	u, ok := p.Resume(context.Background())
	if !ok || u.ID != "u-oauth" || p.Status() != authstate.StatusAuthenticated {
		t.Fatalf("resume did not adopt session: %+v ok=%v status=%v", u, ok, p.Status())
	}

	// and back to anonymous when the session is gone
	fs.user = nil
	if _, ok := p.Resume(context.Background()); ok {
		t.Fatalf("resume with no session must report anonymous")
	}
	if p.Status() != authstate.StatusAnonymous {
		t.Fatalf("status = %v", p.Status())
	}
}
