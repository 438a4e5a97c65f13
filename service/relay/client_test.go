package relay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RelayGate/tools/errs"
)

func TestClientEnqueue(t *testing.T) {
	c := NewClient("c1", nil, 2)

	require.NoError(t, c.Enqueue([]byte("a")))
	require.NoError(t, c.Enqueue([]byte("b")))

	// queue full: reported, never blocks
	err := c.Enqueue([]byte("c"))
	assert.True(t, errors.Is(err, errs.ErrDeliveryFailure))
	assert.Len(t, c.Send, 2)
}

func TestClientEnqueueAfterClose(t *testing.T) {
	c := NewClient("c1", nil, 2)
	c.Close()
	c.Close() // idempotent

	err := c.Enqueue([]byte("a"))
	assert.True(t, errors.Is(err, errs.ErrDeliveryFailure))
	assert.True(t, c.closed())
}
