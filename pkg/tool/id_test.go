package tool

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewID_IsV7(t *testing.T) {
	id, err := uuid.Parse(NewID())
	require.NoError(t, err)
	require.Equal(t, uuid.Version(7), id.Version())
}

func TestJoinKey(t *testing.T) {
	require.Equal(t, "status_poll:shop.myshopify.com", JoinKey("status_poll", " shop.myshopify.com "))
	require.Equal(t, "a:c", JoinKey("a", "", "  ", "c"))
	require.Equal(t, "", JoinKey())
}
