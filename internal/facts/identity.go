package facts

import (
	"os"
	"os/user"
	"strings"
)

// Unresolved is the value of an identity fact when every lookup failed
const Unresolved = "unknown"

// Lookup is one strategy in an identity fallback chain
type Lookup func() (string, error)

// Resolve tries lookups in order and returns the first non-empty result.
// It never fails: an exhausted chain yields Unresolved.
func Resolve(lookups ...Lookup) string {
	for _, lookup := range lookups {
		if lookup == nil {
			continue
		}
		value, err := lookup()
		if err != nil {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return Unresolved
}

// genericHostname is the portable fallback after the platform lookup
func genericHostname() (string, error) {
	return os.Hostname()
}

// genericUsername is the portable fallback after the platform lookup
func genericUsername() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	// Windows returns DOMAIN\user
	if i := strings.LastIndex(u.Username, `\`); i >= 0 {
		return u.Username[i+1:], nil
	}
	return u.Username, nil
}

// envUsername reads the login name from the environment
func envUsername() (string, error) {
	for _, key := range []string{"USER", "LOGNAME", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v, nil
		}
	}
	return "", os.ErrNotExist
}
