package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPacket = errors.New("protocol: malformed packet")
	ErrInvalidJSON     = fmt.Errorf("%w: invalid json", ErrMalformedPacket)
	ErrNotObject       = fmt.Errorf("%w: not a json object", ErrMalformedPacket)
	ErrMissingField    = fmt.Errorf("%w: missing or invalid field", ErrMalformedPacket)
	ErrPacketTooLarge  = fmt.Errorf("%w: packet too large", ErrMalformedPacket)

	ErrEmptyType          = errors.New("protocol: empty packet type")
	ErrInvalidPayloadSize = errors.New("protocol: invalid payload size")

	ErrWrongType                   = errors.New("protocol: wrong packet type")
	ErrInvalidDeviceID             = errors.New("protocol: invalid device id")
	ErrInvalidDeviceName           = errors.New("protocol: invalid device name")
	ErrInvalidDeviceType           = errors.New("protocol: invalid device type")
	ErrInvalidProtocolVersion      = errors.New("protocol: invalid protocol version")
	ErrInvalidTCPPort              = errors.New("protocol: invalid tcp port")
	ErrInvalidIncomingCapabilities = errors.New("protocol: invalid incoming capabilities")
	ErrInvalidOutgoingCapabilities = errors.New("protocol: invalid outgoing capabilities")

	ErrInvalidPair = errors.New("protocol: invalid pair field")
	ErrInvalidPing = errors.New("protocol: invalid ping message")
)

// EncodingError reports a packet whose body could not be encoded as JSON.
// It always indicates a bug in whoever built the packet.
type EncodingError struct {
	Type string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("protocol: encode %q packet: %v", e.Type, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

func wrongType(want string, p *Packet) error {
	if p == nil {
		return fmt.Errorf("%w: want %q, got nil packet", ErrWrongType, want)
	}
	return fmt.Errorf("%w: want %q, got %q", ErrWrongType, want, p.Type)
}

func missingField(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, name)
}
