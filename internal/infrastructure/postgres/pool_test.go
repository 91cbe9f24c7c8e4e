package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPv4Dialer_LookupIPLiteral(t *testing.T) {
	d := newIPv4Dialer("")

	ip, err := d.lookup(context.Background(), "10.0.0.7")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", ip)

	_, err = d.lookup(context.Background(), "::1")
	assert.ErrorIs(t, err, errNoIPv4)
}

func TestNewIPv4Dialer_FallbackOpcional(t *testing.T) {
	assert.Len(t, newIPv4Dialer("").resolvers, 1)
	assert.Len(t, newIPv4Dialer("8.8.8.8:53").resolvers, 2)
}
