package password_test

import (
	"strings"
	"testing"

	"github.com/mingttam/employee-management/internal/shared/password"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := password.NewBcryptHasher(bcrypt.MinCost)

	t.Run("hash is not the plaintext and verifies", func(t *testing.T) {
		hashed, err := h.Hash("secret1")

		assert.NoError(t, err)
		assert.NotEqual(t, "secret1", hashed)
		assert.True(t, strings.HasPrefix(hashed, "$2a$"))

		ok, err := h.Verify(hashed, "secret1")
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong password does not verify", func(t *testing.T) {
		hashed, err := h.Hash("secret1")
		assert.NoError(t, err)

		ok, err := h.Verify(hashed, "secret2")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("same input is salted differently", func(t *testing.T) {
		a, _ := h.Hash("secret1")
		b, _ := h.Hash("secret1")

		assert.NotEqual(t, a, b)
	})

	t.Run("garbage hash returns error", func(t *testing.T) {
		ok, err := h.Verify("not-a-hash", "secret1")

		assert.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("out of range cost falls back to default", func(t *testing.T) {
		hashed, err := password.NewBcryptHasher(100).Hash("secret1")
		assert.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(hashed))
		assert.NoError(t, err)
		assert.Equal(t, bcrypt.DefaultCost, cost)
	})
}
