package tenant

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAcceptsSchemaNames(t *testing.T) {
	for _, raw := range []string{"public", "acme", "acme_corp", "t0", "a"} {
		tn, err := Parse(raw)
		require.NoError(t, err, raw)
		require.Equal(t, raw, tn.Schema())
	}
}

func TestParseRejectsUnsafeIdentifiers(t *testing.T) {
	cases := []string{
		"",
		"Public",
		"1acme",
		"acme corp",
		"acme;drop table x",
		"acme-corp",
		"_acme",
		strings.Repeat("a", 64),
	}
	for _, raw := range cases {
		_, err := Parse(raw)
		require.ErrorIs(t, err, ErrInvalid, raw)
	}
}

func TestContextRoundTrip(t *testing.T) {
	tn, err := Parse("acme")
	require.NoError(t, err)

	ctx := WithTenant(context.Background(), tn)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, tn, got)

	_, ok = FromContext(context.Background())
	require.False(t, ok)
}
