package testutil

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/brianvoe/gofakeit/v7"

	"github.com/propsproject/props-protocol-sub001/pkg"
)

// RandomAccount returns a random account identity for tests.
func RandomAccount(t *testing.T) string {
	t.Helper()
	return gofakeit.Username() + "-" + pkg.RandString(6)
}

// RandomAmount returns a random whole-token amount at 1e18 scale, in
// [1, max] tokens.
func RandomAmount(t *testing.T, max int64) math.Int {
	t.Helper()
	tokens := int64(gofakeit.Number(1, int(max)))
	return math.NewIntWithDecimal(tokens, 18)
}
