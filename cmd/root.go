package cmd

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/worker-finder/internal/marketplace"
	"github.com/spigell/worker-finder/internal/store"
)

const (
	app = "worker-finder"
)

type Config struct {
	APIURL        string                    `mapstructure:"api-url"`
	UserAgent     string                    `mapstructure:"user-agent"`
	TokenFile     string                    `mapstructure:"token-file"`
	ExcludeFile   string                    `mapstructure:"exclude-file"`
	Search        *marketplace.SearchParams `mapstructure:"search"`
	Store         store.Config              `mapstructure:"store"`
	Notifications *NotificationsConfig      `mapstructure:"notifications"`
	Chat          *ChatConfig               `mapstructure:"chat"`
}

type NotificationsConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
}

type ChatConfig struct {
	ReplyDelay time.Duration `mapstructure:"reply-delay"`
	AI         *AIConfig     `mapstructure:"ai"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "worker-finder is a cli for finding, booking and reviewing local service workers",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if skipRuntime(cmd) {
				return
			}
			setupRuntime(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			teardownRuntime()
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"api-url":                     "WF_API_URL",
		"token-file":                  "WF_TOKEN_FILE",
		"store.backend":               "WF_STORE",
		"store.redis.address":         "WF_REDIS_ADDR",
		"chat.ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("api-url", marketplace.DefaultAPIURL)
	viper.SetDefault("store.backend", store.BackendFile)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is worker-finder.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("api-url", "", "marketplace backend url")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("api-url", rootCmd.PersistentFlags().Lookup("api-url"))
}

func initConfig() {
	// .env is optional and never overrides variables already set.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Fatalf("loading .env: %v", err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit config must exist, the default one is optional.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	if config.Notifications == nil {
		config.Notifications = &NotificationsConfig{}
	}
	if config.Chat == nil {
		config.Chat = &ChatConfig{}
	}

	return config, nil
}
