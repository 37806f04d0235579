package registry

import (
	"os"
	"regexp"
	"strings"
)

// DefaultAPIKeyEnv is the environment fallback consulted when no key is
// configured.
const DefaultAPIKeyEnv = "MODHEARTH_REGISTRY_API_KEY"

var (
	// Structured keys are 60-character salted hashes.
	structuredKeyPattern = regexp.MustCompile(`^\$2[aby]\$\d{2}\$[./A-Za-z0-9]{53}$`)

	// Legacy keys are plain alphanumeric strings of at least 32 characters.
	legacyKeyPattern = regexp.MustCompile(`^[A-Za-z0-9]{32,}$`)
)

// CredentialSource resolves the registry API key. Precedence: the
// operator-configured key, then the environment fallback.
type CredentialSource struct {
	ConfiguredKey string
	EnvVar        string
}

// APIKey returns a validly formatted key or an AuthenticationError.
func (s *CredentialSource) APIKey() (string, error) {
	if key := strings.TrimSpace(s.ConfiguredKey); key != "" {
		if !ValidKeyFormat(key) {
			return "", &AuthenticationError{Message: "configured api key is not a recognized key format"}
		}
		return key, nil
	}

	envVar := s.EnvVar
	if envVar == "" {
		envVar = DefaultAPIKeyEnv
	}
	if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
		if !ValidKeyFormat(key) {
			return "", &AuthenticationError{Message: envVar + " is not a recognized key format"}
		}
		return key, nil
	}

	return "", &AuthenticationError{Message: "no api key configured"}
}

// ValidKeyFormat accepts a 60-character structured hash or a legacy
// 32+ character alphanumeric key.
func ValidKeyFormat(key string) bool {
	return structuredKeyPattern.MatchString(key) || legacyKeyPattern.MatchString(key)
}
