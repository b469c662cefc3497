package marketplace

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultAPIURL = "https://worker-backend-1-ruzk.onrender.com/api"
	userAgent     = "spigell/worker-finder"
	// defaultCharges is used as a booking total when the worker has no rate set.
	defaultCharges = 500
)

// Client talks to the marketplace backend. It is safe for concurrent use.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New returns a client for the backend. An empty token makes anonymous requests.
func New(logger *zap.Logger, apiURL, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return &Client{
		token:  strings.TrimSpace(token),
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = strings.TrimSpace(token)
	return &clone
}

// HasToken reports whether requests carry a bearer token.
func (c *Client) HasToken() bool {
	return c.token != ""
}
