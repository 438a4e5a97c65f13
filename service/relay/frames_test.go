package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"user-join","data":{"auth":{"token":"abc"}}}`))
	require.NoError(t, err)
	assert.Equal(t, EventUserJoin, f.Type())
	assert.Equal(t, "user-join", f.Event)

	f, err = ParseFrame([]byte(`{"event":"no-such-event","data":{}}`))
	require.NoError(t, err)
	assert.Equal(t, EventUnknown, f.Type())

	_, err = ParseFrame([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseFrameAllKnownEvents(t *testing.T) {
	for _, ev := range []EventType{
		EventUserJoin, EventJoinChannels, EventUsage, EventChat, EventChannel,
		EventChannelJoin, EventChannelLeave, EventPresence, EventTypingStart,
		EventTypingStop,
	} {
		f, err := ParseFrame([]byte(`{"event":"` + string(ev) + `"}`))
		require.NoError(t, err)
		assert.Equal(t, ev, f.Type())
	}
}

func TestEncodeFrame(t *testing.T) {
	raw, err := EncodeFrame("user-join", map[string]string{"id": "u1", "name": "Ada"})
	require.NoError(t, err)

	var f Frame
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.Equal(t, "user-join", f.Event)

	var data map[string]string
	require.NoError(t, json.Unmarshal(f.Data, &data))
	assert.Equal(t, "u1", data["id"])
	assert.Equal(t, "Ada", data["name"])
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", ExtractToken(json.RawMessage(`{"auth":{"token":"abc"}}`)))
	assert.Equal(t, "xyz", ExtractToken(json.RawMessage(`{"token":"xyz"}`)))
	// nested form wins when both are present
	assert.Equal(t, "abc", ExtractToken(json.RawMessage(`{"auth":{"token":"abc"},"token":"xyz"}`)))
	assert.Empty(t, ExtractToken(nil))
	assert.Empty(t, ExtractToken(json.RawMessage(`{}`)))
	assert.Empty(t, ExtractToken(json.RawMessage(`garbage`)))
}
