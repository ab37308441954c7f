package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/99designs/keyring"
)

const (
	defaultProfile = "default"

	// defaultKey holds the default profile; named profiles live under
	// profilePrefix+name.
	defaultKey        = "default"
	profilePrefix     = "profile:"
	profileIndexKey   = "profiles_index"
	currentProfileKey = "current_profile"
)

// Profile holds the connection settings of one deployment.
type Profile struct {
	AccessToken    string `json:"access_token"`
	OrganizationID string `json:"organization_id,omitempty"`
	URIBase        string `json:"uri_base,omitempty"`
	APIType        string `json:"api_type,omitempty"`
	APIVersion     string `json:"api_version,omitempty"`
}

// ErrNotConfigured is returned when no profile is stored
var ErrNotConfigured = errors.New("oai not configured - run 'oai auth login' first")

func profileName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return defaultProfile
	}
	return name
}

func profileKey(name string) string {
	if name = profileName(name); name == defaultProfile {
		return defaultKey
	}
	return profilePrefix + name
}

// ring is the keyring with JSON helpers for profile records.
type ring struct {
	kr keyring.Keyring
}

func openRing() (*ring, error) {
	kr, err := openKeyring(keyringConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &ring{kr: kr}, nil
}

// get decodes key into v and reports whether it existed.
func (r *ring) get(key string, v any) (bool, error) {
	item, err := r.kr.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(item.Data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (r *ring) set(key, label string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.kr.Set(keyring.Item{Key: key, Data: data, Label: label}); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// names returns the profile index, sorted and without blanks.
func (r *ring) names() ([]string, error) {
	var names []string
	if _, err := r.get(profileIndexKey, &names); err != nil {
		return nil, err
	}
	return tidyNames(names), nil
}

func (r *ring) setNames(names []string) error {
	return r.set(profileIndexKey, "", tidyNames(names))
}

// current reads the current profile. It is stored as a bare string.
func (r *ring) current() (string, error) {
	item, err := r.kr.Get(currentProfileKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return defaultProfile, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", currentProfileKey, err)
	}
	return profileName(string(item.Data)), nil
}

func (r *ring) setCurrent(name string) error {
	return r.kr.Set(keyring.Item{Key: currentProfileKey, Data: []byte(profileName(name))})
}

func tidyNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// SaveProfile stores a profile and makes it the current one.
func SaveProfile(name string, profile Profile) error {
	name = profileName(name)
	r, err := openRing()
	if err != nil {
		return err
	}
	if err := r.set(profileKey(name), serviceName+" "+name, profile); err != nil {
		return err
	}
	names, err := r.names()
	if err != nil {
		return err
	}
	if err := r.setNames(append(names, name)); err != nil {
		return err
	}
	return r.setCurrent(name)
}

// LoadProfile returns the named profile, or ErrNotConfigured.
func LoadProfile(name string) (Profile, error) {
	r, err := openRing()
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	found, err := r.get(profileKey(name), &p)
	if err != nil {
		return Profile{}, err
	}
	if !found {
		return Profile{}, ErrNotConfigured
	}
	return p, nil
}

// DeleteProfile removes a stored profile. When it was current, the first
// remaining profile (alphabetically) becomes current.
func DeleteProfile(name string) error {
	name = profileName(name)
	r, err := openRing()
	if err != nil {
		return err
	}
	if err := r.kr.Remove(profileKey(name)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove profile: %w", err)
	}
	names, err := r.names()
	if err != nil {
		return err
	}
	remaining := slices.DeleteFunc(names, func(n string) bool { return n == name })
	if err := r.setNames(remaining); err != nil {
		return err
	}
	if current, err := r.current(); err == nil && current == name {
		next := defaultProfile
		if len(remaining) > 0 {
			next = remaining[0]
		}
		return r.setCurrent(next)
	}
	return nil
}

// ListProfiles returns the stored profile names. A default profile written
// before the index existed is still reported.
func ListProfiles() ([]string, error) {
	r, err := openRing()
	if err != nil {
		return nil, err
	}
	names, err := r.names()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		if _, err := r.kr.Get(defaultKey); err == nil {
			return []string{defaultProfile}, nil
		}
	}
	return names, nil
}

// CurrentProfile returns the active profile name.
func CurrentProfile() (string, error) {
	r, err := openRing()
	if err != nil {
		return "", err
	}
	return r.current()
}

// SetCurrentProfile sets the active profile name.
func SetCurrentProfile(name string) error {
	r, err := openRing()
	if err != nil {
		return err
	}
	return r.setCurrent(name)
}
