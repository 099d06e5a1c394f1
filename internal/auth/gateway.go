package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"edu-assist/internal/assessment"
	"edu-assist/internal/localstore"
)

const (
	KeyToken      = "authToken"
	KeyUser       = "currentUser"
	KeyLegacyUser = "edu_user"

	DefaultRole   = "trainee"
	DashboardPage = "dashboard.html"
)

type Store interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, keys ...string) error
}

type User struct {
	ID       string `json:"id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

func (u User) ResolvedID() string {
	for _, candidate := range []string{u.ID, u.UserID, u.Username} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return assessment.DefaultUserID
}

func (u User) DisplayName() string {
	for _, candidate := range []string{u.Name, u.UserID} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return "User"
}

// Gateway owns the locally stored session: bearer token, user profile and
// the redirect to the login page when the backend rejects the token.
type Gateway struct {
	store      Store
	now        func() time.Time
	onRedirect func(target string)
}

// NewGateway builds a gateway over store. onRedirect is called with the
// page the user must be sent to; it may be nil.
func NewGateway(store Store, onRedirect func(target string)) *Gateway {
	return &Gateway{
		store:      store,
		now:        time.Now,
		onRedirect: onRedirect,
	}
}

func (g *Gateway) Token(ctx context.Context) string {
	token, err := g.store.GetItem(ctx, KeyToken)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			log.Warn().Err(err).Msg("Failed to read auth token")
		}
		return ""
	}
	return strings.TrimSpace(token)
}

func (g *Gateway) User(ctx context.Context) (User, bool) {
	raw, err := g.store.GetItem(ctx, KeyUser)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			log.Warn().Err(err).Msg("Failed to read current user")
		}
		return User{}, false
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.Warn().Err(err).Msg("Stored user profile is not valid JSON")
		return User{}, false
	}
	return user, true
}

// UserID resolves the id sent with submissions.
func (g *Gateway) UserID() string {
	user, ok := g.User(context.Background())
	if !ok {
		return assessment.DefaultUserID
	}
	return user.ResolvedID()
}

func (g *Gateway) DisplayName(ctx context.Context) string {
	user, _ := g.User(ctx)
	return user.DisplayName()
}

func (g *Gateway) Role(ctx context.Context) string {
	user, ok := g.User(ctx)
	if !ok || strings.TrimSpace(user.Role) == "" {
		return DefaultRole
	}
	return user.Role
}

func (g *Gateway) IsAuthenticated(ctx context.Context) bool {
	token := g.Token(ctx)
	if token == "" {
		return false
	}
	if _, ok := g.User(ctx); !ok {
		return false
	}
	return !g.tokenExpired(token)
}

// tokenExpired only inspects the exp claim; signature checks belong to the
// backend. Opaque tokens never expire client-side.
func (g *Gateway) tokenExpired(token string) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Before(g.now())
}

func (g *Gateway) RequireAuth(ctx context.Context) error {
	if g.IsAuthenticated(ctx) {
		return nil
	}
	g.redirect(assessment.LoginPage)
	return &assessment.RedirectError{Target: assessment.LoginPage, Reason: "not signed in"}
}

func (g *Gateway) RequireRole(ctx context.Context, roles ...string) error {
	if err := g.RequireAuth(ctx); err != nil {
		return err
	}
	role := g.Role(ctx)
	for _, allowed := range roles {
		if role == allowed {
			return nil
		}
	}
	g.redirect(DashboardPage)
	return &assessment.RedirectError{Target: DashboardPage, Reason: "You do not have permission to access this page."}
}

func (g *Gateway) SetSession(ctx context.Context, token string, user User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}

	encoded, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "encode user")
	}
	if err := g.store.SetItem(ctx, KeyToken, token); err != nil {
		return errors.Wrap(err, "store token")
	}
	if err := g.store.SetItem(ctx, KeyUser, string(encoded)); err != nil {
		return errors.Wrap(err, "store user")
	}
	return nil
}

// Logout clears the stored session and sends the user to the login page.
func (g *Gateway) Logout(ctx context.Context) error {
	if err := g.store.RemoveItem(ctx, KeyToken, KeyUser, KeyLegacyUser); err != nil {
		return errors.Wrap(err, "clear session")
	}
	g.redirect(assessment.LoginPage)
	return nil
}

func (g *Gateway) redirect(target string) {
	log.Info().Str("target", target).Msg("Redirecting")
	if g.onRedirect != nil {
		g.onRedirect(target)
	}
}

// Transport wraps base so every request carries the bearer token. A 401
// response clears the session; the response itself is still returned.
func (g *Gateway) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base, gateway: g}
}

type transport struct {
	base    http.RoundTripper
	gateway *Gateway
}

func (t *transport) RoundTrip(request *http.Request) (*http.Response, error) {
	if token := t.gateway.Token(request.Context()); token != "" {
		request = request.Clone(request.Context())
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := t.base.RoundTrip(request)
	if err != nil {
		return nil, err
	}

	if response.StatusCode == http.StatusUnauthorized {
		log.Warn().Str("url", request.URL.String()).Msg("Session rejected by server")
		if err := t.gateway.Logout(request.Context()); err != nil {
			log.Error().Err(err).Msg("Failed to clear session after 401")
		}
	}
	return response, nil
}
