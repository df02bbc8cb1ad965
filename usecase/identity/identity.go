package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck/domain"
	"github.com/taskdeck/taskdeck/repository"
	"github.com/taskdeck/taskdeck/usecase"
)

// Subscriber observes identity changes. It receives the new active user id,
// or the empty string when the user logged out.
type Subscriber func(userID string)

// Config carries token and session settings.
type Config struct {
	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration
}

// Provider manages registration, credentials, sessions and the notion of
// the currently active user. Consumers that need to follow the active
// identity (the task store does) register a Subscriber.
type Provider struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	notifier usecase.Notifier
	logger   *zap.Logger
	cfg      Config

	mu          sync.Mutex
	current     *domain.User
	sessionID   string
	subscribers []Subscriber
}

func New(users repository.UserRepository, sessions repository.SessionRepository, notifier usecase.Notifier, logger *zap.Logger, cfg Config) *Provider {
	if notifier == nil {
		notifier = usecase.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &Provider{
		users:    users,
		sessions: sessions,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
	}
}

// Subscribe registers fn for identity-change events. Subscribers are invoked
// synchronously after login, logout and registration.
func (p *Provider) Subscribe(fn Subscriber) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

// Current returns the active user, or nil when nobody is signed in.
func (p *Provider) Current() *domain.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	u := p.current.Sanitized()
	return &u
}

// Register creates an account and signs the new user in.
func (p *Provider) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, "", domain.NewError(domain.ErrCodeInvalid, "name, email and password are required")
	}

	if _, err := p.users.GetByEmail(ctx, email); err == nil {
		return nil, "", domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, "", err
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrCodeInternal, "failed to hash password", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := p.users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	p.logger.Info("user registered", zap.String("user_id", user.ID))

	token, err := p.openSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	p.notifier.Notify(usecase.EventAccountCreated, "Account created",
		fmt.Sprintf("Welcome to Taskdeck, %s!", user.Name))
	sanitized := user.Sanitized()
	return &sanitized, token, nil
}

// Login verifies the credentials and makes the user the active identity.
// It returns the signed session token.
func (p *Provider) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := p.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	match, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrCodeInternal, "failed to verify password", err)
	}
	if !match {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := p.openSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	p.logger.Info("user logged in", zap.String("user_id", user.ID))
	p.notifier.Notify(usecase.EventLoggedIn, "Login successful",
		fmt.Sprintf("Welcome back, %s!", user.Name))
	sanitized := user.Sanitized()
	return &sanitized, token, nil
}

// Logout revokes the active session and clears the current user.
// Subscribers are told the identity became none.
func (p *Provider) Logout(ctx context.Context) error {
	p.mu.Lock()
	sessionID := p.sessionID
	p.current = nil
	p.sessionID = ""
	subscribers := append([]Subscriber(nil), p.subscribers...)
	p.mu.Unlock()

	if sessionID != "" {
		if err := p.sessions.Delete(ctx, sessionID); err != nil {
			p.logger.Warn("failed to revoke session", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	for _, fn := range subscribers {
		fn("")
	}
	p.notifier.Notify(usecase.EventLoggedOut, "Logged out",
		"You have been logged out successfully.")
	return nil
}

// Verify parses a session token, checks the backing session is still live
// and returns the user id it belongs to.
func (p *Provider) Verify(ctx context.Context, token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(p.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", domain.WrapError(domain.ErrCodeUnauthorized, "invalid session token", err)
	}
	if p.cfg.JWTIssuer != "" && !claims.VerifyIssuer(p.cfg.JWTIssuer, true) {
		return "", domain.NewError(domain.ErrCodeUnauthorized, "invalid token issuer")
	}

	session, err := p.sessions.Get(ctx, claims.ID)
	if err != nil {
		return "", domain.ErrSessionNotFound
	}
	if session.UserID != claims.Subject {
		return "", domain.NewError(domain.ErrCodeUnauthorized, "token does not match session")
	}
	return session.UserID, nil
}

func (p *Provider) openSession(ctx context.Context, user *domain.User) (string, error) {
	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(p.cfg.SessionTTL),
	}
	if err := p.sessions.Save(ctx, session); err != nil {
		return "", err
	}

	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   user.ID,
		Issuer:    p.cfg.JWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.JWTSecret))
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "failed to sign session token", err)
	}

	p.mu.Lock()
	p.current = user
	p.sessionID = session.ID
	subscribers := append([]Subscriber(nil), p.subscribers...)
	p.mu.Unlock()

	for _, fn := range subscribers {
		fn(user.ID)
	}
	return token, nil
}
