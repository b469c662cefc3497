package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/favorites"
	"github.com/spigell/worker-finder/internal/logger"
	"github.com/spigell/worker-finder/internal/marketplace"
	"github.com/spigell/worker-finder/internal/notify"
	"github.com/spigell/worker-finder/internal/secrets"
	"github.com/spigell/worker-finder/internal/session"
	"github.com/spigell/worker-finder/internal/store"
)

const guestID = "guest"

// appState holds everything a command needs. It lives for one command run.
type appState struct {
	ctx       context.Context
	logger    *zap.Logger
	config    *Config
	store     store.Store
	sessions  *session.Manager
	session   *session.Session
	client    *marketplace.Client
	bus       *notify.Bus
	center    *notify.Center
	favorites *favorites.Favorites
}

var rt *appState

func skipRuntime(cmd *cobra.Command) bool {
	return cmd == versionCmd
}

func setupRuntime(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	lg, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		lg.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	lg.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	st, err := store.Open(config.Store)
	if err != nil {
		lg.Fatal("opening local store", zap.Error(err), zap.String("backend", config.Store.Backend))
	}

	sessions := session.NewManager(st, lg)
	sess, err := sessions.Load(ctx)
	if err != nil {
		lg.Fatal("loading session", zap.Error(err))
	}

	token, err := resolveToken(config, sess)
	if err != nil {
		lg.Fatal(
			"loading marketplace token",
			zap.Error(err),
			zap.String("hint", "set WF_TOKEN_FILE environment variable or the 'token-file' key in the configuration file"),
		)
	}
	if sess.Authenticated() {
		lg = logger.WithUser(lg, sess.User.ID, sess.User.Role)
	}

	client := marketplace.New(lg, config.APIURL, token)
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}

	userID := sess.User.ID
	if userID == "" {
		userID = guestID
	}

	bus := notify.NewBus()
	center, err := openCenter(ctx, config, bus, st, userID, lg)
	if err != nil {
		lg.Fatal("loading notifications", zap.Error(err))
	}

	rt = &appState{
		ctx:       ctx,
		logger:    lg,
		config:    config,
		store:     st,
		sessions:  sessions,
		session:   sess,
		client:    client,
		bus:       bus,
		center:    center,
		favorites: favorites.New(st),
	}
}

func openCenter(ctx context.Context, config *Config, bus *notify.Bus, st store.Store, userID string, lg *zap.Logger) (*notify.Center, error) {
	return notify.NewCenter(ctx, bus, st, userID, lg,
		notify.WithTTL(durationOr(config.Notifications.TTL, notify.DefaultTTL)),
		notify.WithCapacity(config.Notifications.Capacity),
	)
}

// switchUser moves the notification center to the backlog of userID.
func switchUser(userID string) {
	if userID == "" {
		userID = guestID
	}

	rt.center.Close()
	center, err := openCenter(rt.ctx, rt.config, rt.bus, rt.store, userID, rt.logger)
	if err != nil {
		fail("loading notifications", err)
	}
	rt.center = center
}

// teardownRuntime flushes notifications, shows the visible ones and releases the store.
func teardownRuntime() {
	if rt == nil {
		return
	}

	rt.center.Close()
	rt.bus.Close()

	for _, n := range rt.center.Visible() {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", strings.ToUpper(string(n.Type)), n.Message)
	}

	if err := rt.store.Close(); err != nil {
		rt.logger.Warn("closing store", zap.Error(err))
	}
	_ = rt.logger.Sync()
	rt = nil
}

// fail publishes an error notification, flushes state and exits.
func fail(msg string, err error, fields ...zap.Field) {
	if rt == nil {
		log.Fatalf("%s: %v", msg, err)
	}

	rt.bus.Error(fmt.Sprintf("%s: %v", msg, err))
	l := rt.logger
	teardownRuntime()
	l.Fatal(msg, append(fields, zap.Error(err))...)
}

// requireSession exits when nobody is signed in.
func requireSession() *session.Session {
	if err := rt.session.Require(); err != nil {
		fail("authentication required", err)
	}
	return rt.session
}

// resolveToken prefers an explicit token file over the stored session.
func resolveToken(config *Config, sess *session.Session) (string, error) {
	tokenFile := strings.TrimSpace(config.TokenFile)
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("token-file"))
	}

	if tokenFile == "" {
		if sess.Authenticated() {
			return sess.Token, nil
		}
		return "", nil
	}

	token, err := secrets.Load(secrets.Source{
		Name: "marketplace token",
		File: tokenFile,
	})
	if err != nil {
		return "", err
	}
	sess.Token = token
	return token, nil
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
