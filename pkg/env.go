package pkg

import "os"

// Getenv returns the value of the environment variable key, falling back to
// defaultValue when the variable is unset. A set-but-empty value is returned
// as is.
func Getenv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
