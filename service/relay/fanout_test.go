package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanoutDeliversToAll(t *testing.T) {
	f := NewFanout(2, 8)
	defer f.Close()

	clients := []*Client{
		NewClient("c1", nil, 4),
		NewClient("c2", nil, 4),
		NewClient("c3", nil, 4),
	}
	f.Broadcast(clients, []byte(`{"event":"x"}`))

	for _, c := range clients {
		select {
		case got := <-c.Send:
			assert.Equal(t, `{"event":"x"}`, string(got))
		case <-time.After(2 * time.Second):
			t.Fatalf("no delivery on %s", c.ConnID)
		}
	}
}

func TestFanoutIsolatesFailures(t *testing.T) {
	f := NewFanout(1, 8)
	defer f.Close()

	dead := NewClient("dead", nil, 4)
	dead.Close()
	live := NewClient("live", nil, 4)

	f.Broadcast([]*Client{dead, live}, []byte(`payload`))

	select {
	case got := <-live.Send:
		assert.Equal(t, "payload", string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("live client never got the payload")
	}
	assert.Empty(t, dead.Send)
}

func TestFanoutCloseDrainsPending(t *testing.T) {
	f := NewFanout(1, 8)
	c := NewClient("c1", nil, 16)
	for i := 0; i < 5; i++ {
		f.Broadcast([]*Client{c}, []byte("m"))
	}
	f.Close()
	require.Len(t, c.Send, 5)
}

func TestFanoutEmptyArgsNoop(t *testing.T) {
	f := NewFanout(1, 1)
	defer f.Close()
	f.Broadcast(nil, []byte("m"))
	f.Broadcast([]*Client{NewClient("c", nil, 1)}, nil)
}
