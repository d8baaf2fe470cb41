package auth

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/acmefin/backend/internal/config"
	"github.com/acmefin/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Error types reported by SignIn. Callers branch on Type to decide whether
// the failure is user-correctable (bad credentials) or not.
const (
	ErrCredentialsSignin = "CredentialsSignin"
	ErrCallbackRoute     = "CallbackRouteError"
)

// Error is a typed sign-in failure
type Error struct {
	Type string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Type, e.Err)
	}
	return e.Type
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Credentials is an email/password pair submitted at login
type Credentials struct {
	Email    string
	Password string
}

// Provider is a pluggable credential strategy. Authorize returns the matched
// user, or nil when the credentials do not identify one; a non-nil error
// means the check itself failed.
type Provider interface {
	Name() string
	Authorize(ctx context.Context, creds Credentials) (*models.User, error)
}

// Session is an issued login session. The token is opaque to clients.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Authenticator issues and revokes sessions. Each session is a signed JWT
// registered in Redis so logout can revoke it before expiry.
type Authenticator struct {
	providers map[string]Provider
	redis     *redis.Client
	cfg       *config.SessionConfig
}

func NewAuthenticator(redisClient *redis.Client, cfg *config.SessionConfig, providers ...Provider) *Authenticator {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Authenticator{
		providers: byName,
		redis:     redisClient,
		cfg:       cfg,
	}
}

// SignIn runs the named provider against the submitted credentials and, on a
// match, issues a session. Failures carry a Type: ErrCredentialsSignin when
// the credentials are wrong, ErrCallbackRoute for anything else.
func (a *Authenticator) SignIn(ctx context.Context, providerName string, creds Credentials) (*Session, error) {
	provider, ok := a.providers[providerName]
	if !ok {
		return nil, &Error{Type: ErrCallbackRoute, Err: fmt.Errorf("unknown provider %q", providerName)}
	}

	user, err := provider.Authorize(ctx, creds)
	if err != nil {
		return nil, &Error{Type: ErrCallbackRoute, Err: err}
	}
	if user == nil {
		return nil, &Error{Type: ErrCredentialsSignin}
	}

	session, err := a.issueSession(ctx, user)
	if err != nil {
		return nil, &Error{Type: ErrCallbackRoute, Err: err}
	}

	log.Printf("[AUTH] Session issued for user %s", user.ID)
	return session, nil
}

// SignOut revokes the session behind a token. Unknown or expired tokens are
// a no-op.
func (a *Authenticator) SignOut(ctx context.Context, token string) error {
	claims, err := parseToken(token)
	if err != nil {
		return nil
	}

	if a.redis == nil {
		return nil
	}

	sessionID, _ := claims["session_id"].(string)
	if sessionID != "" {
		if err := a.redis.Del(ctx, fmt.Sprintf("%s:%s", a.cfg.SessionPrefix, sessionID)).Err(); err != nil {
			log.Printf("[AUTH] Failed to drop session %s: %v", sessionID, err)
		}
	}

	// Blacklist the token for the remainder of its lifetime
	key := fmt.Sprintf("%s:%s", a.cfg.BlacklistPrefix, token)
	if err := a.redis.Set(ctx, key, "1", a.cfg.BlacklistTTL).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	return nil
}

func (a *Authenticator) issueSession(ctx context.Context, user *models.User) (*Session, error) {
	sessionID := uuid.New().String()
	expiresAt := time.Now().Add(a.cfg.TokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    user.ID,
		"session_id": sessionID,
		"exp":        expiresAt.Unix(),
	})

	signed, err := token.SignedString([]byte(viper.GetString("jwt.secret_key")))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if a.redis != nil {
		key := fmt.Sprintf("%s:%s", a.cfg.SessionPrefix, sessionID)
		if err := a.redis.Set(ctx, key, user.ID, a.cfg.TokenTTL).Err(); err != nil {
			return nil, fmt.Errorf("failed to register session: %w", err)
		}
	}

	return &Session{
		Token:     signed,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}, nil
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(viper.GetString("jwt.secret_key")), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}

	return claims, nil
}
