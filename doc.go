// Package zmtp implements the ZMTP 3.1 wire protocol (the transport
// protocol underneath ZeroMQ) for REQ/REP exchanges over a byte stream,
// without depending on a ZeroMQ library.
//
// # Protocol Overview
//
// A ZMTP connection starts with a fixed 64-byte greeting in each
// direction, followed by a security handshake. This package implements
// the NULL mechanism only: each peer sends a READY command carrying its
// Socket-Type, and the connection is then ready for traffic.
//
// After the handshake, all traffic is framed. Every frame starts with a
// flags byte:
//
//	bit 0 (MORE)    - more frames follow in the same message
//	bit 1 (LONG)    - the length field is 8 bytes instead of 1
//	bit 2 (COMMAND) - the frame carries protocol control data
//
// followed by the payload length (one byte, or eight big-endian bytes
// when LONG is set) and the payload itself. A logical message is the
// run of consecutive frames up to and including the first frame without
// the MORE flag.
//
// # Greeting Format
//
// The 64-byte greeting:
//
//	[0]      0xFF       signature
//	[1..9]   padding    ignored by the receiver
//	[9]      0x7F       signature
//	[10]     3          version major
//	[11]     1          version minor
//	[12..32] "NULL"     mechanism, 20 bytes, zero padded
//	[32]     0 or 1     as-server flag
//	[33..64] padding    ignored by the receiver
//
// # REQ/REP Envelope
//
// REQ sockets prepend an empty delimiter frame (MORE set) to every
// request; REP sockets strip leading empty frames on receive and mirror
// the convention on reply: an empty delimiter frame with MORE set, then
// the payload frame. Session and Client apply this automatically, so
// the application only ever sees raw payload bytes.
//
// # Usage
//
// Server side, one Session per accepted connection:
//
//	handler := func(payload []byte) ([]byte, error) {
//		return []byte("World"), nil
//	}
//
//	session, err := zmtp.NewSession(conn, zmtp.HandlerOption(handler))
//	if err != nil {
//		// ...
//	}
//	err = session.Run(ctx)
//
// Client side:
//
//	client, err := zmtp.Dial("127.0.0.1:42123")
//	if err != nil {
//		// ...
//	}
//	defer client.Close()
//
//	reply, err := client.Do([]byte("Hello ZeroMQ"))
//
// # Scope
//
// Only the NULL security mechanism and the REQ/REP framing convention
// are implemented. PLAIN and CURVE, PUB/SUB subscription frames,
// ROUTER/DEALER identity envelopes, and PING/PONG heartbeating are out
// of scope.
package zmtp
