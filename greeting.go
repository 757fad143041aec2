package zmtp

import (
	"io"

	"github.com/pkg/errors"
)

// Greeting wire layout constants.
const (
	// GreetingSize is the fixed size of the ZMTP greeting.
	GreetingSize = 64

	// VersionMajor and VersionMinor are the protocol version this
	// implementation announces.
	VersionMajor byte = 3
	VersionMinor byte = 1

	// MechanismNull is the only security mechanism supported.
	MechanismNull = "NULL"

	signatureHead byte = 0xFF
	signatureTail byte = 0x7F

	// minVersionMajor is the lowest peer major version accepted. The
	// framing below 3.0 is incompatible.
	minVersionMajor byte = 3

	mechanismOffset = 12
	mechanismSize   = 20
	asServerOffset  = 32
)

// Greeting is the decoded form of the 64-byte connection preamble. It
// is built once per connection at handshake start and not retained.
type Greeting struct {
	Major     byte
	Minor     byte
	Mechanism string
	AsServer  bool
}

// NewGreeting returns the greeting this implementation sends: version
// 3.1, NULL mechanism.
func NewGreeting(asServer bool) Greeting {
	return Greeting{
		Major:     VersionMajor,
		Minor:     VersionMinor,
		Mechanism: MechanismNull,
		AsServer:  asServer,
	}
}

// Encode serializes the greeting to its fixed 64-byte form. Fails with
// ErrInvalidMechanism when the mechanism name does not fit the 20-byte
// field or contains non-ASCII bytes.
func (g Greeting) Encode() ([]byte, error) {
	if len(g.Mechanism) > mechanismSize {
		return nil, errors.Wrapf(ErrInvalidMechanism, "%q exceeds %d bytes", g.Mechanism, mechanismSize)
	}
	if !isASCIIName(g.Mechanism) {
		return nil, errors.Wrapf(ErrInvalidMechanism, "%q is not printable ASCII", g.Mechanism)
	}

	buf := make([]byte, GreetingSize)
	buf[0] = signatureHead
	buf[9] = signatureTail
	buf[10] = g.Major
	buf[11] = g.Minor
	copy(buf[mechanismOffset:mechanismOffset+mechanismSize], g.Mechanism)
	if g.AsServer {
		buf[asServerOffset] = 1
	}

	return buf, nil
}

// DecodeGreeting parses a 64-byte greeting. The signature bytes must
// match, the major version must be at least 3, and the mechanism field
// must be a printable ASCII name right-padded with zero bytes.
func DecodeGreeting(buf []byte) (Greeting, error) {
	if len(buf) != GreetingSize {
		return Greeting{}, errors.Wrapf(ErrIncompleteStream, "greeting is %d bytes, want %d", len(buf), GreetingSize)
	}

	if buf[0] != signatureHead || buf[9] != signatureTail {
		return Greeting{}, errors.Wrapf(ErrInvalidSignature, "got 0x%02X..0x%02X", buf[0], buf[9])
	}

	g := Greeting{
		Major:    buf[10],
		Minor:    buf[11],
		AsServer: buf[asServerOffset] == 1,
	}

	if g.Major < minVersionMajor {
		return Greeting{}, errors.Wrapf(ErrUnsupportedVersion, "peer speaks %d.%d", g.Major, g.Minor)
	}

	name, err := trimMechanism(buf[mechanismOffset : mechanismOffset+mechanismSize])
	if err != nil {
		return Greeting{}, err
	}
	g.Mechanism = name

	return g, nil
}

// readGreeting blocks until a full greeting has been read from r.
func readGreeting(r io.Reader) (Greeting, error) {
	buf := make([]byte, GreetingSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Greeting{}, errors.Wrapf(ErrIncompleteStream, "read greeting: %v", err)
	}
	return DecodeGreeting(buf)
}

// trimMechanism reads the mechanism name up to the first zero byte and
// verifies the remainder is all zero padding.
func trimMechanism(field []byte) (string, error) {
	end := len(field)
	for i, c := range field {
		if c == 0 {
			end = i
			break
		}
	}

	name := string(field[:end])
	if !isASCIIName(name) {
		return "", errors.Wrapf(ErrInvalidMechanism, "non-ASCII bytes in %q", name)
	}

	for _, c := range field[end:] {
		if c != 0 {
			return "", errors.Wrap(ErrInvalidMechanism, "mechanism padding is not zero")
		}
	}

	return name, nil
}

// isASCIIName reports whether s consists of printable ASCII only.
func isASCIIName(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}
