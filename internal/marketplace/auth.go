package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	RoleUser   = "user"
	RoleWorker = "worker"
)

// Account is the user part of a login/signup response.
type Account struct {
	ID         string `json:"_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	Profession string `json:"profession,omitempty"`
	Location   string `json:"location,omitempty"`
}

// AuthResponse is returned by the login and signup endpoints.
type AuthResponse struct {
	Token   string `json:"token"`
	Account `json:",squash"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// WorkerSignupRequest registers a worker account listed in the catalog.
type WorkerSignupRequest struct {
	SignupRequest
	Profession string  `json:"profession"`
	Location   string  `json:"location"`
	Charges    float64 `json:"charges"`
	Contact    string  `json:"contact"`
}

func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	return c.authenticate(ctx, "/users/login", creds)
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "/users/signup", req)
}

func (c *Client) WorkerSignup(ctx context.Context, req WorkerSignupRequest) (*AuthResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	known := false
	for _, p := range Professions {
		if p == req.Profession {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown profession %q", req.Profession)
	}
	if strings.TrimSpace(req.Location) == "" {
		return nil, fmt.Errorf("location is required")
	}
	if req.Charges <= 0 {
		return nil, fmt.Errorf("charges must be positive")
	}

	return c.authenticate(ctx, "/workers/signup", req)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.sendJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}

	if strings.TrimSpace(resp.Token) == "" {
		return nil, fmt.Errorf("backend returned no token")
	}

	return &resp, nil
}

func (r SignupRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if len(r.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}
