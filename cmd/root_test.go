package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/worker-finder/internal/session"
)

func TestGetConfigFromYAML(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "worker-finder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api-url: http://localhost:5000/api
search:
  profession: Plumber
store:
  backend: redis
  redis:
    address: localhost:6380
notifications:
  ttl: 3s
chat:
  reply-delay: 500ms
  ai:
    enabled: true
    gemini:
      model: gemini-2.5-flash
`), 0o600))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	config, err := getConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", config.APIURL)
	assert.Equal(t, "Plumber", config.Search.Profession)
	assert.Equal(t, "redis", config.Store.Backend)
	assert.Equal(t, "localhost:6380", config.Store.Redis.Address)
	assert.Equal(t, 3*time.Second, config.Notifications.TTL)
	assert.Equal(t, 500*time.Millisecond, config.Chat.ReplyDelay)
	require.NotNil(t, config.Chat.AI)
	assert.True(t, config.Chat.AI.Enabled)
	assert.Equal(t, "gemini-2.5-flash", config.Chat.AI.Gemini.Model)
}

func TestGetConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	config, err := getConfig()
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.NotNil(t, config.Notifications)
	assert.NotNil(t, config.Chat)
	assert.Nil(t, config.Chat.AI)
}

func TestResolveToken(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("file-token\n"), 0o600))

	tests := []struct {
		name    string
		config  *Config
		session *session.Session
		want    string
		wantErr bool
	}{
		{name: "anonymous", config: &Config{}, session: &session.Session{}, want: ""},
		{name: "stored session", config: &Config{}, session: &session.Session{Token: "stored"}, want: "stored"},
		{name: "token file wins", config: &Config{TokenFile: tokenFile}, session: &session.Session{Token: "stored"}, want: "file-token"},
		{name: "missing token file", config: &Config{TokenFile: filepath.Join(t.TempDir(), "absent")}, session: &session.Session{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveToken(tt.config, tt.session)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, tt.session.Token)
		})
	}
}

func TestDurationOr(t *testing.T) {
	assert.Equal(t, 5*time.Second, durationOr(0, 5*time.Second))
	assert.Equal(t, time.Second, durationOr(time.Second, 5*time.Second))
}
