package protocol

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Format selects the JSON layout produced by Encode.
type Format int

const (
	FormatCompact Format = iota
	FormatPretty
)

// PayloadInfo describes how a transport fetches an attached payload,
// e.g. {"port": 1739}.
type PayloadInfo map[string]any

// Port returns the side-channel port, if the descriptor carries one.
func (i PayloadInfo) Port() (uint16, bool) {
	v, ok := i["port"]
	if !ok {
		return 0, false
	}
	u, ok := toUint64(v)
	if !ok || u > 65535 {
		return 0, false
	}
	return uint16(u), true
}

// Packet is one protocol message. Only ID, Type and Body go on the wire; the
// payload fields are set by transport code after a side channel has been
// negotiated and are never serialized.
//
// Treat a Packet as immutable once it has been built or parsed.
type Packet struct {
	ID   int64
	Type string
	Body Body

	// Payload is owned by the transport. The packet never reads or closes it.
	Payload     io.Reader
	PayloadSize int64
	PayloadInfo PayloadInfo
}

type wirePacket struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
	Body Body   `json:"body"`
}

// New builds a packet stamped with the current time in milliseconds.
func New(packetType string, body Body) *Packet {
	if body == nil {
		body = Body{}
	}
	return &Packet{
		ID:   time.Now().UnixMilli(),
		Type: packetType,
		Body: body,
	}
}

// Parse decodes one JSON packet. Fields other than id, type and body are
// ignored. Every failure wraps ErrMalformedPacket.
func Parse(data []byte) (*Packet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrInvalidJSON
	}

	var raw map[string]any
	if err := codec.Unmarshal(data, &raw); err != nil {
		if !json.Valid(data) {
			return nil, ErrInvalidJSON
		}
		return nil, ErrNotObject
	}
	if raw == nil {
		return nil, ErrNotObject
	}

	rawID, ok := raw["id"]
	if !ok {
		return nil, missingField("id")
	}
	id, ok := toInt64(rawID)
	if !ok {
		return nil, missingField("id")
	}

	packetType, ok := raw["type"].(string)
	if !ok || packetType == "" {
		return nil, missingField("type")
	}

	body, ok := raw["body"].(map[string]any)
	if !ok {
		return nil, missingField("body")
	}

	return &Packet{
		ID:   id,
		Type: packetType,
		Body: Body(body),
	}, nil
}

// Serialize encodes the packet as compact JSON followed by the '\n' framing
// delimiter.
func (p *Packet) Serialize() ([]byte, error) {
	return p.Encode(FormatCompact)
}

// Encode encodes the packet in the given format. FormatPretty output spans
// several lines and is meant for logs, not for the wire.
func (p *Packet) Encode(format Format) ([]byte, error) {
	if p.Type == "" {
		return nil, ErrEmptyType
	}

	body := p.Body
	if body == nil {
		body = Body{}
	}
	if err := checkBody(body); err != nil {
		return nil, &EncodingError{Type: p.Type, Err: err}
	}
	wire := wirePacket{ID: p.ID, Type: p.Type, Body: body}

	var (
		data []byte
		err  error
	)
	if format == FormatPretty {
		data, err = codec.MarshalIndent(wire, "", "  ")
	} else {
		data, err = codec.Marshal(wire)
	}
	if err != nil {
		return nil, &EncodingError{Type: p.Type, Err: err}
	}
	return append(data, '\n'), nil
}

// SetPayload attaches a payload stream. Only transport code should call it.
func (p *Packet) SetPayload(r io.Reader, size int64, info PayloadInfo) error {
	if size < 0 {
		return ErrInvalidPayloadSize
	}
	p.Payload = r
	p.PayloadSize = size
	p.PayloadInfo = info
	return nil
}

func (p *Packet) HasPayload() bool {
	return p.Payload != nil
}

// MarshalZerologObject logs the packet header. The body is left out since it
// can carry user content.
func (p *Packet) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("id", p.ID).Str("type", p.Type)
	if p.HasPayload() {
		e.Int64("payloadSize", p.PayloadSize)
	}
}
