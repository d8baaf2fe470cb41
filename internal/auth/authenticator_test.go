package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/acmefin/backend/internal/config"
	"github.com/acmefin/backend/internal/models"
	"github.com/go-redis/redismock/v8"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

type stubProvider struct {
	user *models.User
	err  error
}

func (p *stubProvider) Name() string { return "credentials" }

func (p *stubProvider) Authorize(ctx context.Context, creds Credentials) (*models.User, error) {
	return p.user, p.err
}

func TestAuthenticator_SignIn(t *testing.T) {
	viper.Set("jwt.secret_key", "test-secret")
	cfg := config.LoadSessionConfig()

	t.Run("rejected credentials carry the CredentialsSignin type", func(t *testing.T) {
		a := NewAuthenticator(nil, cfg, &stubProvider{})

		session, err := a.SignIn(context.Background(), "credentials", Credentials{})

		assert.Nil(t, session)
		var authErr *Error
		assert.ErrorAs(t, err, &authErr)
		assert.Equal(t, ErrCredentialsSignin, authErr.Type)
	})

	t.Run("provider failure carries a different type", func(t *testing.T) {
		a := NewAuthenticator(nil, cfg, &stubProvider{err: errors.New("lookup failed")})

		_, err := a.SignIn(context.Background(), "credentials", Credentials{})

		var authErr *Error
		assert.ErrorAs(t, err, &authErr)
		assert.Equal(t, ErrCallbackRoute, authErr.Type)
		assert.NotEqual(t, ErrCredentialsSignin, authErr.Type)
	})

	t.Run("unknown provider is not a credentials failure", func(t *testing.T) {
		a := NewAuthenticator(nil, cfg, &stubProvider{})

		_, err := a.SignIn(context.Background(), "oauth", Credentials{})

		var authErr *Error
		assert.ErrorAs(t, err, &authErr)
		assert.Equal(t, ErrCallbackRoute, authErr.Type)
	})

	t.Run("match issues a session registered in redis", func(t *testing.T) {
		redisClient, mock := redismock.NewClientMock()
		user := &models.User{ID: "u1", Email: "user@nextmail.com"}
		a := NewAuthenticator(redisClient, cfg, &stubProvider{user: user})

		mock.Regexp().ExpectSet(`session:.+`, `u1`, cfg.TokenTTL).SetVal("OK")

		session, err := a.SignIn(context.Background(), "credentials", Credentials{
			Email:    "user@nextmail.com",
			Password: "password123",
		})

		assert.NoError(t, err)
		assert.NotNil(t, session)
		assert.NotEmpty(t, session.Token)
		assert.Equal(t, "u1", session.UserID)
		assert.WithinDuration(t, time.Now().Add(cfg.TokenTTL), session.ExpiresAt, time.Minute)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuthenticator_SignOut(t *testing.T) {
	viper.Set("jwt.secret_key", "test-secret")
	cfg := config.LoadSessionConfig()

	t.Run("revokes the session and blacklists the token", func(t *testing.T) {
		redisClient, mock := redismock.NewClientMock()
		user := &models.User{ID: "u1"}
		a := NewAuthenticator(redisClient, cfg, &stubProvider{user: user})

		mock.Regexp().ExpectSet(`session:.+`, `u1`, cfg.TokenTTL).SetVal("OK")
		session, err := a.SignIn(context.Background(), "credentials", Credentials{})
		assert.NoError(t, err)

		mock.Regexp().ExpectDel(`session:.+`).SetVal(1)
		mock.Regexp().ExpectSet(`blacklist:.+`, `1`, cfg.BlacklistTTL).SetVal("OK")

		err = a.SignOut(context.Background(), session.Token)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("garbage token is a no-op", func(t *testing.T) {
		a := NewAuthenticator(nil, cfg, &stubProvider{})
		assert.NoError(t, a.SignOut(context.Background(), "not-a-jwt"))
	})
}
