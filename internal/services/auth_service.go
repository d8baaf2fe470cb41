package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/acmefin/backend/internal/auth"
	"github.com/acmefin/backend/internal/models"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// CredentialsProvider authorizes email/password pairs against the users
// table. A nil user result means rejection; errors are reserved for lookup
// failures.
type CredentialsProvider struct {
	db        *sql.DB
	validator *validator.Validate
}

type loginCredentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

func NewCredentialsProvider(db *sql.DB) *CredentialsProvider {
	return &CredentialsProvider{
		db:        db,
		validator: validator.New(),
	}
}

func (p *CredentialsProvider) Name() string {
	return "credentials"
}

// Authorize looks up the user by email and compares the password against the
// stored bcrypt hash. The comparison is constant-time. Malformed
// credentials, an unknown email, and a wrong password are all the same
// rejection; callers never learn which check failed.
func (p *CredentialsProvider) Authorize(ctx context.Context, creds auth.Credentials) (*models.User, error) {
	parsed := loginCredentials{Email: creds.Email, Password: creds.Password}
	if err := p.validator.Struct(&parsed); err != nil {
		return nil, nil
	}

	var user models.User
	err := p.db.QueryRowContext(ctx,
		`SELECT id, name, email, password FROM users WHERE email = $1`,
		strings.ToLower(creds.Email)).Scan(&user.ID, &user.Name, &user.Email, &user.Password)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		return nil, nil
	}

	return &user, nil
}

type AuthService struct {
	authenticator *auth.Authenticator
}

func NewAuthService(authenticator *auth.Authenticator) *AuthService {
	return &AuthService{
		authenticator: authenticator,
	}
}

// Login handles user authentication
// @Summary Login
// @Description Authenticate with email and password and receive a session token
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param email formData string true "Email address"
// @Param password formData string true "Password"
// @Success 200 {object} auth.Session "Session issued"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 500 {object} map[string]string "Unexpected failure"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	if err := r.ParseForm(); err != nil {
		sendLoginError(w, http.StatusBadRequest, "Something went wrong.")
		return
	}

	creds := auth.Credentials{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	session, err := s.authenticator.SignIn(r.Context(), "credentials", creds)
	if err != nil {
		var authErr *auth.Error
		if errors.As(err, &authErr) && authErr.Type == auth.ErrCredentialsSignin {
			log.Printf("[AUTH] Invalid credentials for %s", creds.Email)
			sendLoginError(w, http.StatusUnauthorized, "Invalid credentials.")
			return
		}
		log.Printf("[AUTH] Sign-in failed for %s: %v", creds.Email, err)
		sendLoginError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	log.Printf("[AUTH] Login successful for user %s", session.UserID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

// Logout handles session revocation
// @Summary Logout
// @Description Revoke the current session token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token != "" && len(token) > 7 {
		token = token[7:] // Remove "Bearer " prefix

		if err := s.authenticator.SignOut(r.Context(), token); err != nil {
			log.Printf("[AUTH] Logout failed: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logout successful"})
}

func sendLoginError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
