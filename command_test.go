package zmtp

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewReadyFrameWireLayout(t *testing.T) {
	frame, err := NewReadyFrame("REP")
	require.NoError(t, err)
	require.True(t, frame.Command)
	require.False(t, frame.More)

	encoded, err := frame.Encode()
	require.NoError(t, err)

	// flags, size, [5]"READY", [11]"Socket-Type", u32 len, "REP"
	want := "0419" + "055245414459" + "0b536f636b65742d54797065" + "00000003" + "524550"
	require.Equal(t, want, hex.EncodeToString(encoded))
}

func TestReadyRoundTrip(t *testing.T) {
	for _, socketType := range []string{"REP", "REQ", "DEALER"} {
		frame, err := NewReadyFrame(socketType)
		require.NoError(t, err)

		cmd, err := ParseCommand(frame)
		require.NoError(t, err)
		require.Equal(t, "READY", cmd.Name)
		require.NoError(t, requireReady(cmd))

		value, ok := cmd.Property("Socket-Type")
		require.True(t, ok)
		require.Equal(t, []byte(socketType), value)
	}
}

func TestParseCommandNotACommand(t *testing.T) {
	_, err := ParseCommand(NewFrame([]byte("READY"), false))
	require.ErrorIs(t, err, ErrNotACommand)
}

func TestParseCommandMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    error
	}{
		{
			name:    "empty payload",
			payload: nil,
			want:    ErrMalformedCommand,
		},
		{
			name:    "command name overruns payload",
			payload: []byte{10, 'R', 'E', 'A', 'D', 'Y'},
			want:    ErrMalformedCommand,
		},
		{
			name:    "property name overruns payload",
			payload: []byte{5, 'R', 'E', 'A', 'D', 'Y', 20, 'S', 'T'},
			want:    ErrMalformedCommand,
		},
		{
			name:    "property value length truncated",
			payload: []byte{5, 'R', 'E', 'A', 'D', 'Y', 2, 'S', 'T', 0x00, 0x00},
			want:    ErrMalformedCommand,
		},
		{
			name:    "property value overruns payload",
			payload: []byte{5, 'R', 'E', 'A', 'D', 'Y', 2, 'S', 'T', 0x00, 0x00, 0x00, 100, 'a', 'b', 'c'},
			want:    ErrMalformedCommand,
		},
		{
			name:    "value length prefix at maximum",
			payload: []byte{5, 'R', 'E', 'A', 'D', 'Y', 2, 'S', 'T', 0xFF, 0xFF, 0xFF, 0xFF, 'a'},
			want:    ErrMalformedCommand,
		},
		{
			name: "duplicate property",
			payload: []byte{
				5, 'R', 'E', 'A', 'D', 'Y',
				2, 'I', 'd', 0x00, 0x00, 0x00, 0x01, 'a',
				2, 'I', 'd', 0x00, 0x00, 0x00, 0x01, 'b',
			},
			want: ErrDuplicateProperty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand(NewCommandFrame(tt.payload))
			require.ErrorIs(t, err, tt.want)
			require.True(t, IsProtocolViolation(err))
		})
	}
}

func TestParseCommandNoProperties(t *testing.T) {
	cmd, err := ParseCommand(NewCommandFrame([]byte{5, 'R', 'E', 'A', 'D', 'Y'}))
	require.NoError(t, err)
	require.Equal(t, "READY", cmd.Name)
	require.Empty(t, cmd.Properties)

	_, ok := cmd.Property("Socket-Type")
	require.False(t, ok)
}

func TestRequireReadyUnexpectedCommand(t *testing.T) {
	cmd, err := ParseCommand(NewCommandFrame([]byte{5, 'E', 'R', 'R', 'O', 'R'}))
	require.NoError(t, err)

	err = requireReady(cmd)
	require.ErrorIs(t, err, ErrUnexpectedCommand)
}
