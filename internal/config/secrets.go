package config

import (
	"fmt"
	"os"
	"strings"
)

// SecretFileError reports a *_FILE secret that could not be read. The
// secret value itself never appears in the message.
type SecretFileError struct {
	Env  string
	Path string
	Err  error
}

func (e *SecretFileError) Error() string {
	return fmt.Sprintf("failed to read secret from %s=%s: %v", e.Env, e.Path, e.Err)
}

func (e *SecretFileError) Unwrap() error { return e.Err }

// ResolveSecret reads a secret using the *_FILE convention: envName+"_FILE"
// names a file whose trimmed contents win over envName itself. Returns an
// empty string when neither is set.
func ResolveSecret(envName string) (string, error) {
	fileEnv := envName + "_FILE"
	if path := os.Getenv(fileEnv); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", &SecretFileError{Env: fileEnv, Path: path, Err: err}
		}
		return strings.TrimSpace(string(content)), nil
	}
	return os.Getenv(envName), nil
}

// ResolveSecrets resolves several secrets, stopping at the first failure.
func ResolveSecrets(envNames ...string) (map[string]string, error) {
	out := make(map[string]string, len(envNames))
	for _, name := range envNames {
		v, err := ResolveSecret(name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
