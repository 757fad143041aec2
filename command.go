package zmtp

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	commandReady = "READY"

	propertySocketType = "Socket-Type"

	// maxNameLength bounds command and property names, both carried
	// with a one-byte length prefix.
	maxNameLength = 255

	valueLengthSize = 4
)

// Property is one command metadata entry: a short ASCII name and an
// opaque value.
type Property struct {
	Name  string
	Value []byte
}

// Command is the structured view over a command frame's payload: a
// length-prefixed name followed by a property list.
type Command struct {
	Name       string
	Properties []Property
}

// Property returns the value of the named property.
func (c *Command) Property(name string) ([]byte, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// NewReadyFrame builds a READY command frame announcing the given
// socket type, the only metadata the NULL handshake requires.
func NewReadyFrame(socketType string) (Frame, error) {
	if !isASCIIName(socketType) {
		return Frame{}, errors.Wrapf(ErrMalformedCommand, "socket type %q is not printable ASCII", socketType)
	}

	payload := make([]byte, 0, 1+len(commandReady)+1+len(propertySocketType)+valueLengthSize+len(socketType))
	payload = append(payload, byte(len(commandReady)))
	payload = append(payload, commandReady...)
	payload = append(payload, byte(len(propertySocketType)))
	payload = append(payload, propertySocketType...)
	payload = binary.BigEndian.AppendUint32(payload, uint32(len(socketType)))
	payload = append(payload, socketType...)

	return NewCommandFrame(payload), nil
}

// ParseCommand decodes a command frame's payload. Fails with
// ErrNotACommand when the frame lacks the COMMAND flag, and with
// ErrMalformedCommand when any length prefix overruns the remaining
// bytes. Duplicate property names are rejected rather than resolved
// last-wins.
func ParseCommand(f Frame) (*Command, error) {
	if !f.Command {
		return nil, ErrNotACommand
	}

	buf := f.Payload
	if len(buf) == 0 {
		return nil, errors.Wrap(ErrMalformedCommand, "empty payload")
	}

	nameLen := int(buf[0])
	buf = buf[1:]
	if nameLen > len(buf) {
		return nil, errors.Wrapf(ErrMalformedCommand, "name length %d exceeds %d remaining bytes", nameLen, len(buf))
	}

	cmd := &Command{Name: string(buf[:nameLen])}
	if !isASCIIName(cmd.Name) {
		return nil, errors.Wrapf(ErrMalformedCommand, "command name %q is not printable ASCII", cmd.Name)
	}
	buf = buf[nameLen:]

	seen := make(map[string]struct{})
	for len(buf) > 0 {
		propLen := int(buf[0])
		buf = buf[1:]
		if propLen > len(buf) {
			return nil, errors.Wrapf(ErrMalformedCommand, "property name length %d exceeds %d remaining bytes", propLen, len(buf))
		}

		name := string(buf[:propLen])
		buf = buf[propLen:]

		if len(buf) < valueLengthSize {
			return nil, errors.Wrapf(ErrMalformedCommand, "property %q value length truncated", name)
		}
		// Stays unsigned: converting to int first would flip sign on
		// 32-bit platforms and slip past the bounds check.
		valueLen := binary.BigEndian.Uint32(buf[:valueLengthSize])
		buf = buf[valueLengthSize:]
		if uint64(valueLen) > uint64(len(buf)) {
			return nil, errors.Wrapf(ErrMalformedCommand, "property %q value length %d exceeds %d remaining bytes", name, valueLen, len(buf))
		}

		if _, dup := seen[name]; dup {
			return nil, errors.Wrapf(ErrDuplicateProperty, "property %q", name)
		}
		seen[name] = struct{}{}

		value := make([]byte, valueLen)
		copy(value, buf[:valueLen])
		buf = buf[valueLen:]

		cmd.Properties = append(cmd.Properties, Property{Name: name, Value: value})
	}

	return cmd, nil
}

// requireReady checks that the handshake command is READY.
func requireReady(cmd *Command) error {
	if cmd.Name != commandReady {
		return errors.Wrapf(ErrUnexpectedCommand, "got %q, want %q", cmd.Name, commandReady)
	}
	return nil
}
