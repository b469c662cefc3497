// Package session persists the signed-in account between command runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/logger"
	"github.com/spigell/worker-finder/internal/marketplace"
	"github.com/spigell/worker-finder/internal/store"
)

var ErrNotSignedIn = errors.New("not signed in, run `worker-finder login` first")

var now = time.Now

type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Phone string `json:"phone,omitempty"`
}

// Session is the signed-in account. User is kept as the backend returned it;
// local edits live in Profile.
type Session struct {
	Token   string  `json:"token"`
	User    User    `json:"user"`
	Profile Profile `json:"-"`
}

// Profile holds local edits made to the account that the backend does not store.
type Profile struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
}

func FromAuth(resp *marketplace.AuthResponse) *Session {
	return &Session{
		Token: resp.Token,
		User: User{
			ID:    resp.ID,
			Name:  resp.Name,
			Email: resp.Email,
			Role:  resp.Role,
		},
	}
}

// ExpiresAt reads the exp claim without verifying the signature.
func (s *Session) ExpiresAt() (time.Time, bool) {
	if s == nil || s.Token == "" {
		return time.Time{}, false
	}

	token, _, err := jwt.NewParser().ParseUnverified(s.Token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

func (s *Session) Expired() bool {
	exp, ok := s.ExpiresAt()
	return ok && !now().Before(exp)
}

func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && !s.Expired()
}

func (s *Session) IsWorker() bool {
	return s != nil && s.User.Role == marketplace.RoleWorker
}

func (s *Session) CanSeeRecommendations() bool {
	return s.Authenticated() && !s.IsWorker()
}

// Require returns ErrNotSignedIn for anonymous or expired sessions.
func (s *Session) Require() error {
	if !s.Authenticated() {
		return ErrNotSignedIn
	}
	return nil
}

// Apply merges non-empty profile edits into the session profile.
func (s *Session) Apply(p Profile) {
	s.Profile = s.Profile.merge(p)
}

// DisplayName prefers the locally edited name over the account name.
func (s *Session) DisplayName() string {
	return firstNonBlank(s.Profile.Name, s.User.Name)
}

func (s *Session) DisplayPhone() string {
	return firstNonBlank(s.Profile.Phone, s.User.Phone)
}

func (p Profile) merge(edits Profile) Profile {
	if strings.TrimSpace(edits.Name) != "" {
		p.Name = edits.Name
	}
	if strings.TrimSpace(edits.Phone) != "" {
		p.Phone = edits.Phone
	}
	if strings.TrimSpace(edits.Location) != "" {
		p.Location = edits.Location
	}
	return p
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type Manager struct {
	sessions *store.Namespace[Session]
	profiles *store.Namespace[Profile]
	logger   *zap.Logger
}

func NewManager(s store.Store, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: store.NewNamespace[Session](s, "session"),
		profiles: store.NewNamespace[Profile](s, "profile"),
		logger:   logger,
	}
}

// Load returns the stored session with profile edits applied.
// A missing session yields an anonymous one, not an error.
func (m *Manager) Load(ctx context.Context) (*Session, error) {
	sess, err := m.sessions.Load(ctx, "")
	if errors.Is(err, store.ErrNotFound) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if sess.Expired() {
		m.logger.Info("stored session expired", logger.UserFields(sess.User.ID, sess.User.Role)...)
	}

	if sess.User.ID != "" {
		profile, err := m.profiles.LoadOr(ctx, sess.User.ID, Profile{})
		if err != nil {
			return nil, fmt.Errorf("loading profile: %w", err)
		}
		sess.Apply(profile)
	}

	return &sess, nil
}

func (m *Manager) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.Token == "" {
		return errors.New("refusing to save a session without a token")
	}
	if err := m.sessions.Save(ctx, "", *sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	m.logger.Debug("session saved", logger.UserFields(sess.User.ID, sess.User.Role)...)
	return nil
}

func (m *Manager) Clear(ctx context.Context) error {
	if err := m.sessions.Delete(ctx, ""); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func (m *Manager) Profile(ctx context.Context, userID string) (Profile, error) {
	return m.profiles.LoadOr(ctx, userID, Profile{})
}

// UpdateProfile merges non-empty fields of p into the stored profile.
func (m *Manager) UpdateProfile(ctx context.Context, userID string, p Profile) (Profile, error) {
	if userID == "" {
		return Profile{}, ErrNotSignedIn
	}
	return m.profiles.Update(ctx, userID, func(current Profile) (Profile, error) {
		return current.merge(p), nil
	})
}
