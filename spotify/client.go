// Package spotify is the metadata gateway in front of the Spotify Web API.
// It owns the client-credentials token, turns free-text artist and album
// names into normalized records, and recovers from token expiry on its own.
package spotify

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const DefaultAPIURL = "https://api.spotify.com/v1/"

// Config holds gateway configuration.
type Config struct {
	ClientID     string        // Required
	ClientSecret string        // Required
	TokenURL     string        // Optional: defaults to the Spotify accounts token endpoint
	APIURL       string        // Optional: defaults to DefaultAPIURL
	Market       string        // Optional: market for top tracks and albums, defaults to "US"
	RetryDelay   time.Duration // Optional: base delay between token exchange retries, defaults to 1s
	HTTPClient   *http.Client  // Optional: used for token and resource calls
}

// Gateway resolves artist and album names against the catalog. It is safe
// for concurrent use; the credential is the only state shared between calls.
type Gateway struct {
	api    *spotifyclient.Client
	tokens *credentialStore
	market string
}

func New(cfg Config) (*Gateway, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify: client id and secret are required")
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	market := cfg.Market
	if market == "" {
		market = "US"
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 15 * time.Second}
	}

	exchanger := &contextClientExchanger{
		config: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		client: base,
	}

	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	apiClient := &http.Client{
		Transport: &bearerTransport{next: transport},
		Timeout:   base.Timeout,
	}

	return &Gateway{
		api:    spotifyclient.New(apiClient, spotifyclient.WithBaseURL(apiURL)),
		tokens: newCredentialStore(exchanger, retryDelay),
		market: market,
	}, nil
}

// TokenState exposes the credential lifecycle; /health reports it.
func (g *Gateway) TokenState() TokenState {
	return g.tokens.State()
}

// contextClientExchanger runs the client-credentials exchange with a fixed
// HTTP client so tests and timeouts apply to the token endpoint as well.
type contextClientExchanger struct {
	config *clientcredentials.Config
	client *http.Client
}

func (e *contextClientExchanger) Token(ctx context.Context) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)
	return e.config.Token(ctx)
}

type callStateKey struct{}

// callState carries the bearer token into the transport and the response
// status back out of it for a single resource call.
type callState struct {
	token  string
	status int
}

type bearerTransport struct {
	next http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	state, _ := req.Context().Value(callStateKey{}).(*callState)
	if state == nil || state.token == "" {
		return nil, errors.New("spotify: resource call without a bearer token")
	}
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+state.token)
	resp, err := t.next.RoundTrip(r)
	if resp != nil {
		state.status = resp.StatusCode
	}
	return resp, err
}

// call runs fn with a bearer token. A 401 invalidates the token and fn is
// retried exactly once with a fresh one; a second 401 is an upstream error.
func (g *Gateway) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	const maxAttempts = 2

	span := sentry.StartSpan(ctx, "spotify."+strings.ReplaceAll(op, " ", "_"))
	span.Description = "Spotify API: " + op
	defer span.Finish()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		token, err := g.tokens.Token(ctx)
		if err != nil {
			span.Status = sentry.SpanStatusUnauthenticated
			return err
		}

		state := &callState{token: token}
		err = fn(context.WithValue(span.Context(), callStateKey{}, state))
		if err == nil {
			span.Status = sentry.SpanStatusOK
			return nil
		}
		lastErr = err

		if state.status != http.StatusUnauthorized && !isUnauthorized(err) {
			span.Status = sentry.SpanStatusInternalError
			e := upstreamError(op, err)
			if e.Status == 0 {
				e.Status = state.status
			}
			return e
		}

		log.Warnf("Spotify %s returned 401 (attempt %d/%d), invalidating token", op, attempt, maxAttempts)
		g.tokens.invalidate(token)
	}

	span.Status = sentry.SpanStatusUnauthenticated
	return &Error{Kind: KindUpstream, Op: op, Status: http.StatusUnauthorized, Err: lastErr}
}

func firstImageURL(images []spotifyclient.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
