// Package env holds small helpers for reading process environment variables
// outside the typed config layer, such as the PORT override injected by the
// container platform.
package env

import "os"

// Get returns the named environment variable, or fallback when it is unset
// or empty.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
