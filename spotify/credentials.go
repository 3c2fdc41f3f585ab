package spotify

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// tokenSkew is subtracted from the expiry so a token never runs out mid-request.
	tokenSkew = 10 * time.Second

	// defaultTokenLifetime applies when the exchange response omits expires_in.
	defaultTokenLifetime = time.Hour

	maxTokenRetries = 3
)

// Credential is an access token and the instant it stops being usable.
// It is replaced wholesale on refresh and never mutated.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenState is the observable state of the credential store.
type TokenState int

const (
	StateAbsent TokenState = iota
	StateValid
	StateExpired
	StateRefreshing
)

func (s TokenState) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateRefreshing:
		return "refreshing"
	default:
		return "absent"
	}
}

// tokenExchanger performs one client-credentials exchange.
// *clientcredentials.Config satisfies it.
type tokenExchanger interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// credentialStore owns the process-wide access token. Readers of a valid
// token only do an atomic load; refreshes are coalesced so at most one
// exchange is in flight.
type credentialStore struct {
	exchanger  tokenExchanger
	retryDelay time.Duration
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) bool

	current    atomic.Pointer[Credential]
	refreshing atomic.Bool
	flight     singleflight.Group
}

func newCredentialStore(exchanger tokenExchanger, retryDelay time.Duration) *credentialStore {
	return &credentialStore{
		exchanger:  exchanger,
		retryDelay: retryDelay,
		now:        time.Now,
		sleep:      sleep,
	}
}

func (s *credentialStore) usable(c *Credential) bool {
	return c != nil && s.now().Before(c.ExpiresAt.Add(-tokenSkew))
}

// State reports the current lifecycle state.
func (s *credentialStore) State() TokenState {
	if s.refreshing.Load() {
		return StateRefreshing
	}
	c := s.current.Load()
	switch {
	case c == nil:
		return StateAbsent
	case s.usable(c):
		return StateValid
	default:
		return StateExpired
	}
}

// Token returns a usable access token, refreshing it if needed. Concurrent
// callers that find no usable token all wait on the same exchange.
func (s *credentialStore) Token(ctx context.Context) (string, error) {
	if c := s.current.Load(); s.usable(c) {
		return c.AccessToken, nil
	}

	v, err, shared := s.flight.Do("token", func() (interface{}, error) {
		if c := s.current.Load(); s.usable(c) {
			return c, nil
		}
		s.refreshing.Store(true)
		defer s.refreshing.Store(false)

		// One waiter cancelling must not fail the others.
		c, err := s.exchange(context.WithoutCancel(ctx))
		if err != nil {
			s.current.Store(nil)
			return nil, err
		}
		s.current.Store(c)
		return c, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		log.Tracef("Shared in-flight Spotify token refresh")
	}
	return v.(*Credential).AccessToken, nil
}

// invalidate drops the credential if it still holds token. A token that was
// already replaced by a concurrent refresh is left alone.
func (s *credentialStore) invalidate(token string) {
	c := s.current.Load()
	if c != nil && c.AccessToken == token {
		s.current.CompareAndSwap(c, nil)
	}
}

func (s *credentialStore) exchange(ctx context.Context) (*Credential, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		tok, err := s.exchanger.Token(ctx)
		if err == nil && tok.AccessToken != "" {
			expiresAt := tok.Expiry
			if expiresAt.IsZero() {
				expiresAt = s.now().Add(defaultTokenLifetime)
			}
			log.Debugf("Obtained Spotify access token (expires %s)", expiresAt.Format(time.RFC3339))
			return &Credential{AccessToken: tok.AccessToken, ExpiresAt: expiresAt}, nil
		}
		if err == nil {
			err = errors.New("token response had no access_token")
		}
		lastErr = err

		if attempt >= maxTokenRetries {
			break
		}
		wait := time.Duration(attempt+1) * s.retryDelay
		log.Warnf("Spotify token exchange failed (attempt %d/%d), retrying in %s: %v",
			attempt+1, maxTokenRetries+1, wait, err)
		if !s.sleep(ctx, wait) {
			lastErr = ctx.Err()
			break
		}
	}

	log.Errorf("Spotify token exchange failed after retries: %v", lastErr)
	return nil, &Error{Kind: KindAuthFailure, Op: "token exchange", Err: lastErr}
}

// sleep waits for d or until ctx is done. Returns false if ctx finished first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
