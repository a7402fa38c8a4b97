// Package authstate keeps a process-wide projection of the session store:
// whether a user is signed in, and who. It is initialized once at startup and
// then mutated only by the login/logout transitions; everything else reads.
package authstate

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"course_review/internal/domain"
)

type Status int

const (
	// StatusUnknown holds until the first session lookup finishes. Guarded
	// surfaces must show a neutral waiting state, not a redirect.
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// Projection is a single-writer/many-reader store. The RWMutex replaces the
// single-threaded assumption the original client leaned on.
type Projection struct {
	sessions domain.SessionStore

	initOnce sync.Once

	mu     sync.RWMutex
	status Status
	user   *domain.User
}

func New(sessions domain.SessionStore) *Projection {
	return &Projection{sessions: sessions, status: StatusUnknown}
}

// Init resolves Unknown exactly once by asking the session store for the
// current user. Any failure, including a plain transport error, lands on
// Anonymous; startup never surfaces an auth error.
func (p *Projection) Init(ctx context.Context) {
	p.initOnce.Do(func() {
		user, err := p.sessions.GetCurrentUser(ctx)
		if err != nil {
			p.set(StatusAnonymous, nil)
			return
		}
		p.set(StatusAuthenticated, &user)
	})
}

func (p *Projection) set(status Status, user *domain.User) {
	p.mu.Lock()
	p.status = status
	p.user = user
	p.mu.Unlock()
}

func (p *Projection) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// CurrentUser implements app.AuthReader.
func (p *Projection) CurrentUser() (domain.User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.status != StatusAuthenticated || p.user == nil {
		return domain.User{}, false
	}
	return *p.user, true
}

// Login creates a session and transitions to Authenticated.
func (p *Projection) Login(ctx context.Context, email, password string) (domain.User, error) {
	if _, err := p.sessions.CreateSession(ctx, email, password); err != nil {
		return domain.User{}, err
	}
	user, err := p.sessions.GetCurrentUser(ctx)
	if err != nil {
		return domain.User{}, err
	}
	p.set(StatusAuthenticated, &user)
	return user, nil
}

// Register creates the account and logs straight in, so callers can fetch the
// current user immediately after.
func (p *Projection) Register(ctx context.Context, email, password, name string) (domain.User, error) {
	if _, err := p.sessions.CreateAccount(ctx, email, password, name); err != nil {
		return domain.User{}, err
	}
	return p.Login(ctx, email, password)
}

// Logout destroys the remote session best-effort and always lands on
// Anonymous: logout is locally effective no matter what the backend says.
func (p *Projection) Logout(ctx context.Context) {
	if err := p.sessions.DestroySession(ctx); err != nil {
		log.Warn().Err(err).Msg("remote session destroy failed, local state cleared anyway")
	}
	p.set(StatusAnonymous, nil)
}

// Resume re-reads the session store after a federated login redirect and
// adopts whatever it finds.
func (p *Projection) Resume(ctx context.Context) (domain.User, bool) {
	user, err := p.sessions.GetCurrentUser(ctx)
	if err != nil {
		p.set(StatusAnonymous, nil)
		return domain.User{}, false
	}
	p.set(StatusAuthenticated, &user)
	return user, true
}

// FederatedLoginURL passes through to the session store.
func (p *Projection) FederatedLoginURL(provider, successURL, failureURL string) (string, error) {
	return p.sessions.FederatedLoginURL(provider, successURL, failureURL)
}
