package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a secret such as the backend token can be read from.
type Source struct {
	// Name is used in error messages.
	Name string
	// Value is an inline value, e.g. the token saved in the session store.
	Value string
	// File points to a file holding the value. It wins over Value and Env.
	File string
	// Env names an environment variable consulted when File is unset.
	Env string
}

// Load resolves the secret in File, Env, Value order and trims it.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}

		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
