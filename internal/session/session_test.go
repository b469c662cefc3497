package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/marketplace"
	"github.com/spigell/worker-finder/internal/store"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{"id": "u1"}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func TestSessionGating(t *testing.T) {
	t.Parallel()

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name          string
		session       *Session
		authenticated bool
		worker        bool
		recommend     bool
	}{
		{name: "nil", session: nil},
		{name: "anonymous", session: &Session{}},
		{
			name:          "customer",
			session:       &Session{Token: signedToken(t, future), User: User{Role: marketplace.RoleUser}},
			authenticated: true,
			recommend:     true,
		},
		{
			name:          "worker",
			session:       &Session{Token: signedToken(t, future), User: User{Role: marketplace.RoleWorker}},
			authenticated: true,
			worker:        true,
		},
		{
			name:    "expired",
			session: &Session{Token: signedToken(t, past), User: User{Role: marketplace.RoleUser}},
		},
		{
			name:          "opaque token",
			session:       &Session{Token: "not-a-jwt", User: User{Role: marketplace.RoleUser}},
			authenticated: true,
			recommend:     true,
		},
		{
			name:          "role is case sensitive",
			session:       &Session{Token: signedToken(t, time.Time{}), User: User{Role: "Worker"}},
			authenticated: true,
			recommend:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.authenticated, tt.session.Authenticated())
			assert.Equal(t, tt.worker, tt.session.IsWorker())
			assert.Equal(t, tt.recommend, tt.session.CanSeeRecommendations())
		})
	}
}

func TestExpiresAt(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	s := &Session{Token: signedToken(t, exp)}

	got, ok := s.ExpiresAt()
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = (&Session{Token: signedToken(t, time.Time{})}).ExpiresAt()
	assert.False(t, ok)
}

func TestExpiredUsesClock(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Session{Token: signedToken(t, exp)}

	orig := now
	t.Cleanup(func() { now = orig })

	now = func() time.Time { return exp.Add(-time.Second) }
	assert.False(t, s.Expired())

	now = func() time.Time { return exp }
	assert.True(t, s.Expired())
	assert.ErrorIs(t, s.Require(), ErrNotSignedIn)
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.NewMemoryStore(), zap.NewNop())

	anon, err := m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, anon.Authenticated())

	assert.Error(t, m.Save(ctx, &Session{}))

	sess := FromAuth(&marketplace.AuthResponse{
		Token:   "tok",
		Account: marketplace.Account{ID: "u1", Name: "Asha", Email: "asha@example.com", Role: marketplace.RoleUser},
	})
	require.NoError(t, m.Save(ctx, sess))

	loaded, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess, loaded)

	require.NoError(t, m.Clear(ctx))
	cleared, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, cleared.Token)
}

func TestProfileEditsKeptApartFromUser(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.NewMemoryStore(), zap.NewNop())

	require.NoError(t, m.Save(ctx, &Session{Token: "tok", User: User{ID: "u1", Name: "Asha"}}))

	_, err := m.UpdateProfile(ctx, "", Profile{Phone: "1"})
	assert.ErrorIs(t, err, ErrNotSignedIn)

	_, err = m.UpdateProfile(ctx, "u1", Profile{Phone: "98765"})
	require.NoError(t, err)
	profile, err := m.UpdateProfile(ctx, "u1", Profile{Name: "Asha K"})
	require.NoError(t, err)
	assert.Equal(t, Profile{Name: "Asha K", Phone: "98765"}, profile)

	_, err = m.UpdateProfile(ctx, "u1", Profile{Location: "Pune"})
	require.NoError(t, err)

	loaded, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Asha K", loaded.DisplayName())
	assert.Equal(t, "98765", loaded.DisplayPhone())
	assert.Equal(t, "Pune", loaded.Profile.Location)
	assert.Equal(t, "Asha", loaded.User.Name, "account name must stay as the backend returned it")
}

func TestWorkerStatsIgnoreLocalRename(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.NewMemoryStore(), zap.NewNop())

	require.NoError(t, m.Save(ctx, &Session{
		Token: "tok",
		User:  User{ID: "w1", Name: "Ravi", Role: marketplace.RoleWorker},
	}))
	_, err := m.UpdateProfile(ctx, "w1", Profile{Name: "Ravi Kumar"})
	require.NoError(t, err)

	sess, err := m.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "Ravi Kumar", sess.DisplayName())

	bookings := &marketplace.Bookings{Items: []marketplace.Booking{
		{ID: "b1", Worker: &marketplace.Worker{Name: "Ravi"}, Status: marketplace.StatusCompleted, TotalAmount: 400},
		{ID: "b2", Worker: &marketplace.Worker{Name: "Ravi"}, Status: marketplace.StatusPending, TotalAmount: 600},
	}}

	stats := bookings.WorkerStats(sess.User.Name)
	assert.Equal(t, 2, stats.TotalBookings)
	assert.Equal(t, 1, stats.CompletedJobs)
	assert.Equal(t, 400.0, stats.Earnings)
}

func TestDisplayFallsBackToAccount(t *testing.T) {
	sess := &Session{User: User{Name: "Asha", Phone: "111"}}
	assert.Equal(t, "Asha", sess.DisplayName())
	assert.Equal(t, "111", sess.DisplayPhone())

	sess.Apply(Profile{Name: "  ", Phone: "222"})
	assert.Equal(t, "Asha", sess.DisplayName())
	assert.Equal(t, "222", sess.DisplayPhone())
}
