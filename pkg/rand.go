package pkg

import (
	"math/rand"
	"strings"
)

// RandString returns a random alphanumeric string of length n, used to keep
// generated account identities unique.
func RandString(n int) string {
	var builder strings.Builder
	builder.Grow(n)

	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for range n {
		builder.WriteByte(alphabet[rand.Intn(len(alphabet))]) //nolint:gosec
	}

	return builder.String()
}
