package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"family-calendar-go/internal/config"
	"family-calendar-go/pkg/logger"
)

// TokenAuth resolves the bearer token against the identity provider's
// userinfo endpoint and makes sure a user document exists before the request
// reaches a handler. With SkipAuth set it injects the configured mock user
// instead, which is how local development and the e2e suite run.
type TokenAuth struct {
	baseURL  string
	client   *http.Client
	users    UserSaver
	log      logger.Logger
	skipAuth bool
	mockUser User
}

type contextKey int

const (
	userIDKey contextKey = iota
	userKey
)

type User struct {
	ID    string
	Email string
	Name  string
}

// UserSaver creates the user document for a first-time identity. Implemented
// by the profile service.
type UserSaver interface {
	EnsureUser(ctx context.Context, userID, email, name string) error
}

type userinfoResponse struct {
	ID       string         `json:"id"`
	Sub      string         `json:"sub"`
	Email    string         `json:"email"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"user_metadata"`
}

func NewTokenAuth(cfg config.AuthConfig, users UserSaver, log logger.Logger) *TokenAuth {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &TokenAuth{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		client:   &http.Client{Timeout: timeout},
		users:    users,
		log:      log,
		skipAuth: cfg.SkipAuth,
		mockUser: User{
			ID:    strings.TrimSpace(cfg.MockUserID),
			Email: strings.TrimSpace(cfg.MockUserEmail),
			Name:  strings.TrimSpace(cfg.MockUserName),
		},
	}
}

func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.skipAuth {
			if a.mockUser.ID == "" {
				writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth mock user id not configured")
				return
			}
			a.admit(w, r, next, a.mockUser)
			return
		}

		if a.baseURL == "" {
			writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth not configured")
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w)
			return
		}

		user, ok := a.resolve(r.Context(), token)
		if !ok {
			unauthorized(w)
			return
		}
		a.admit(w, r, next, user)
	})
}

func (a *TokenAuth) admit(w http.ResponseWriter, r *http.Request, next http.Handler, user User) {
	if a.users != nil {
		if err := a.users.EnsureUser(r.Context(), user.ID, user.Email, user.Name); err != nil {
			a.log.InternalError("auth: ensure user failed", err, "user_id", user.ID)
		}
	}
	next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
}

func (a *TokenAuth) resolve(ctx context.Context, token string) (User, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/userinfo", nil)
	if err != nil {
		return User{}, false
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("auth: userinfo request failed", "err", err)
		return User{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return User{}, false
	}

	var payload userinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return User{}, false
	}

	userID := firstNonEmpty(payload.ID, payload.Sub)
	if userID == "" {
		return User{}, false
	}
	return User{
		ID:    userID,
		Email: payload.Email,
		Name:  firstNonEmpty(payload.Name, stringFromMap(payload.Metadata, "name"), stringFromMap(payload.Metadata, "full_name")),
	}, true
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithUser(ctx context.Context, user User) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, userIDKey, user.ID)
}

func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func stringFromMap(values map[string]any, key string) string {
	value, ok := values[key].(string)
	if !ok {
		return ""
	}
	return value
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
