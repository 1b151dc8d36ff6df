package entitlement_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediscan/quotakit/pkg/entitlement"
)

func TestPrincipal(t *testing.T) {
	t.Parallel()

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()

		p := entitlement.Anonymous("sess-42")

		assert.True(t, p.IsAnonymous())
		assert.False(t, p.IsZero())
		assert.Equal(t, "anon:sess-42", p.Key())
		assert.Equal(t, "sess-42", p.SessionID())
		assert.Equal(t, uuid.Nil, p.UserID())
	})

	t.Run("authenticated", func(t *testing.T) {
		t.Parallel()

		id := uuid.New()
		p := entitlement.Authenticated(id)

		assert.False(t, p.IsAnonymous())
		assert.False(t, p.IsZero())
		assert.Equal(t, "user:"+id.String(), p.Key())
		assert.Equal(t, id, p.UserID())
		assert.Empty(t, p.SessionID())
	})

	t.Run("zero principal", func(t *testing.T) {
		t.Parallel()

		var p entitlement.Principal
		assert.True(t, p.IsZero())
	})
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		p := entitlement.Anonymous("sess-7")
		ctx := entitlement.SetPrincipalToContext(context.Background(), p)

		got, ok := entitlement.GetPrincipalFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, p, got)
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		_, ok := entitlement.GetPrincipalFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("require present", func(t *testing.T) {
		t.Parallel()

		p := entitlement.Anonymous("sess-8")
		ctx := entitlement.SetPrincipalToContext(context.Background(), p)

		got, err := entitlement.RequirePrincipalFromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	})

	t.Run("require absent", func(t *testing.T) {
		t.Parallel()

		_, err := entitlement.RequirePrincipalFromContext(context.Background())
		assert.ErrorIs(t, err, entitlement.ErrPrincipalNotInContext)
		assert.ErrorIs(t, err, entitlement.ErrNoPrincipal)
	})
}
