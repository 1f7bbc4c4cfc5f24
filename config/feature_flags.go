package config

import (
	"os"
	"strconv"
	"sync"
)

// FeatureFlags holds the client feature toggles. The server does not gate
// events on them; the current values are pushed to every client on connect
// so the client can hide screens that are switched off.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// EnvKey is the variable that switches the feature on.
	EnvKey string
}

// Feature names as seen by the client.
const (
	FeatureLogin                     = "login"
	FeatureSignin                    = "signin"
	FeatureAccount                   = "account"
	FeatureDailyChallenge            = "dailyChallenge"
	FeatureDailyChallengeLeaderboard = "dailyChallengeLeaderboard"
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.initializeDefaults()
	ff.loadFromEnvironment()
	return ff
}

// initializeDefaults registers every feature as disabled.
func (ff *FeatureFlags) initializeDefaults() {
	for _, f := range []Feature{
		{Name: FeatureLogin, Description: "Log in with name and password", EnvKey: "ENABLE_LOGIN"},
		{Name: FeatureSignin, Description: "Create an account", EnvKey: "ENABLE_SIGNIN"},
		{Name: FeatureAccount, Description: "Account page and profile edits", EnvKey: "ENABLE_ACCOUNT"},
		{Name: FeatureDailyChallenge, Description: "Daily challenge mode", EnvKey: "ENABLE_DAILYCHALLENGE"},
		{Name: FeatureDailyChallengeLeaderboard, Description: "Daily challenge leaderboard", EnvKey: "ENABLE_DAILYCHALLENGE_LEADERBOARD"},
	} {
		ff.features[f.Name] = &f
	}
}

// loadFromEnvironment enables features whose variable parses as true.
// Unparsable values leave the feature disabled.
func (ff *FeatureFlags) loadFromEnvironment() {
	for _, feature := range ff.features {
		if val := os.Getenv(feature.EnvKey); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
			}
		}
	}
}

// IsEnabled reports whether a feature is on. Unknown features are off.
func (ff *FeatureFlags) IsEnabled(featureName string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	return ok && feature.Enabled
}

// SetEnabled switches a feature at runtime.
func (ff *FeatureFlags) SetEnabled(featureName string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	feature.Enabled = enabled
	return nil
}

// Snapshot returns name -> enabled for every feature, ready to be sent.
func (ff *FeatureFlags) Snapshot() map[string]bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]bool, len(ff.features))
	for name, f := range ff.features {
		result[name] = f.Enabled
	}
	return result
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]Feature, len(ff.features))
	for k, v := range ff.features {
		result[k] = *v
	}
	return result
}

// --- Errors ---

var ErrFeatureNotFound = &FeatureFlagError{Message: "feature not found"}

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
