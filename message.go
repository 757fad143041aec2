package zmtp

import (
	"io"

	"github.com/pkg/errors"
)

// Message is one logical ZMTP message: the ordered run of frames up to
// and including the first frame without the MORE flag. A message always
// holds at least one frame, though every frame may be empty.
type Message struct {
	Frames [][]byte
}

// Length returns the total payload size across all frames.
func (m *Message) Length() int {
	var n int
	for _, frame := range m.Frames {
		n += len(frame)
	}
	return n
}

// Body returns the concatenation of all frame payloads, delimiters
// included.
func (m *Message) Body() []byte {
	body := make([]byte, 0, m.Length())
	for _, frame := range m.Frames {
		body = append(body, frame...)
	}
	return body
}

// Payload returns the application payload: the concatenation of frame
// payloads after dropping the leading empty frames a REQ peer prepends
// as its envelope delimiter.
func (m *Message) Payload() []byte {
	frames := m.Frames
	for len(frames) > 0 && len(frames[0]) == 0 {
		frames = frames[1:]
	}

	payload := make([]byte, 0)
	for _, frame := range frames {
		payload = append(payload, frame...)
	}
	return payload
}

// ReadMessage blocks until one complete message has been read from r,
// decoding frames until the MORE flag clears. Command frames are not
// valid here; after the handshake the only commands ZMTP defines are
// subscriptions and heartbeats, which are out of scope, so one is
// surfaced as ErrUnexpectedCommand.
//
// limits bounds both per-frame size and frame count; the wire format
// itself has no upper bound.
func ReadMessage(r io.Reader, limits Limits) (*Message, error) {
	msg := new(Message)

	for {
		frame, err := ReadFrame(r, limits)
		if err != nil {
			if err == io.EOF && len(msg.Frames) > 0 {
				return nil, errors.Wrap(ErrIncompleteStream, "stream closed between frames of one message")
			}
			return nil, err
		}

		if frame.Command {
			cmd, err := ParseCommand(frame)
			if err != nil {
				return nil, err
			}
			return nil, errors.Wrapf(ErrUnexpectedCommand, "command %q inside message stream", cmd.Name)
		}

		msg.Frames = append(msg.Frames, frame.Payload)
		if limits.MaxFrames > 0 && len(msg.Frames) > limits.MaxFrames {
			return nil, errors.Wrapf(ErrTooManyFrames, "limit %d", limits.MaxFrames)
		}

		if !frame.More {
			return msg, nil
		}
	}
}

// EncodeEnvelope serializes payload in the REQ/REP envelope convention:
// an empty delimiter frame with MORE set, then the payload frame. Both
// sides of the exchange use the same shape regardless of payload size.
func EncodeEnvelope(payload []byte) ([]byte, error) {
	delimiter, err := Frame{More: true}.Encode()
	if err != nil {
		return nil, err
	}

	body, err := NewFrame(payload, false).Encode()
	if err != nil {
		return nil, err
	}

	return append(delimiter, body...), nil
}
