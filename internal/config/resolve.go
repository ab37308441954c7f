package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/salmonumbrella/openai-cli/internal/api"
)

// Environment overrides for stored profiles.
const (
	EnvAccessToken    = "OAI_ACCESS_TOKEN"
	EnvOrganizationID = "OAI_ORGANIZATION_ID"
	EnvURIBase        = "OAI_URI_BASE"
	EnvAPIType        = "OAI_API_TYPE"
	EnvAPIVersion     = "OAI_API_VERSION"
	EnvProfile        = "OAI_PROFILE"
)

// Resolved contains client defaults assembled from the profile and the
// environment. Flags are layered on top as api options by the caller.
type Resolved struct {
	Config  api.Config
	Profile string
	// ProfileErr records why the profile could not be read. It only matters
	// when nothing else supplied a credential.
	ProfileErr error
}

// Resolve layers environment variables over the named profile (or
// OAI_PROFILE, or the current profile) over api.DefaultConfig().
func Resolve(profileName string) (Resolved, error) {
	res := Resolved{Config: api.DefaultConfig(), Profile: profileName}
	if res.Profile == "" {
		res.Profile = envValue(EnvProfile)
	}
	if res.Profile == "" {
		current, err := CurrentProfile()
		if err != nil {
			res.ProfileErr = err
			current = defaultProfile
		}
		res.Profile = current
	}

	if res.ProfileErr == nil {
		profile, err := LoadProfile(res.Profile)
		if err != nil {
			res.ProfileErr = err
		} else if err := applyProfile(&res.Config, profile); err != nil {
			return Resolved{}, err
		}
	}

	if err := applyEnv(&res.Config); err != nil {
		return Resolved{}, err
	}
	return res, nil
}

func applyProfile(cfg *api.Config, p Profile) error {
	setIf(&cfg.AccessToken, p.AccessToken)
	setIf(&cfg.OrganizationID, p.OrganizationID)
	setIf(&cfg.URIBase, p.URIBase)
	setIf(&cfg.APIVersion, p.APIVersion)
	if p.APIType != "" {
		t, err := api.ParseAPIType(p.APIType)
		if err != nil {
			return fmt.Errorf("stored profile: %w", err)
		}
		cfg.APIType = t
	}
	return nil
}

func applyEnv(cfg *api.Config) error {
	setIf(&cfg.AccessToken, envValue(EnvAccessToken))
	setIf(&cfg.OrganizationID, envValue(EnvOrganizationID))
	setIf(&cfg.URIBase, envValue(EnvURIBase))
	setIf(&cfg.APIVersion, envValue(EnvAPIVersion))
	if v := envValue(EnvAPIType); v != "" {
		t, err := api.ParseAPIType(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAPIType, err)
		}
		cfg.APIType = t
	}
	return nil
}

// envValue returns the trimmed value of key; blank counts as unset.
func envValue(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// HasEnvCredential reports whether the environment supplies a credential.
func HasEnvCredential() bool {
	return envValue(EnvAccessToken) != ""
}
