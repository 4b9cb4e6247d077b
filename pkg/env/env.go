package env

import (
	"os"
	"strings"
)

// Prefix namespaces the variables this project reads.
const Prefix = "PHOTOCARD_"

// Get returns PHOTOCARD_<key>, then the bare key, then fallback. Blank values
// count as unset.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
