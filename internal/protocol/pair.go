package protocol

const (
	TypePair = "kdeconnect.pair"
	TypePing = "kdeconnect.ping"
)

// NewPairPacket requests (pair == true) or drops pairing. timestamp is in
// seconds and feeds the verification key on protocol 8 peers; zero omits it.
func NewPairPacket(pair bool, timestamp int64) *Packet {
	body := Body{"pair": pair}
	if timestamp != 0 {
		body["timestamp"] = timestamp
	}
	return New(TypePair, body)
}

// PairRequest reads a pair packet.
type PairRequest struct {
	p *Packet
}

func PairOf(p *Packet) PairRequest {
	return PairRequest{p: p}
}

func (r PairRequest) Pair() (bool, error) {
	if r.p == nil || r.p.Type != TypePair {
		return false, wrongType(TypePair, r.p)
	}
	v, ok := r.p.Body.Bool("pair")
	if !ok {
		return false, invalidField(ErrInvalidPair, r.p.Body, "pair")
	}
	return v, nil
}

func (r PairRequest) Timestamp() (int64, bool) {
	if r.p == nil || r.p.Type != TypePair {
		return 0, false
	}
	return r.p.Body.Int("timestamp")
}

// ValidatePair checks that p is a pair packet with a boolean pair field and,
// when present, an integer timestamp.
func ValidatePair(p *Packet) error {
	if _, err := PairOf(p).Pair(); err != nil {
		return err
	}
	if p.Body.Has("timestamp") {
		if _, ok := PairOf(p).Timestamp(); !ok {
			return invalidField(ErrInvalidPair, p.Body, "timestamp")
		}
	}
	return nil
}

// NewPingPacket builds a ping. An empty message gives an empty body.
func NewPingPacket(message string) *Packet {
	body := Body{}
	if message != "" {
		body["message"] = message
	}
	return New(TypePing, body)
}

// PingMessage returns the optional ping message.
func PingMessage(p *Packet) (string, error) {
	if p == nil || p.Type != TypePing {
		return "", wrongType(TypePing, p)
	}
	if !p.Body.Has("message") {
		return "", nil
	}
	msg, ok := p.Body.String("message")
	if !ok {
		return "", invalidField(ErrInvalidPing, p.Body, "message")
	}
	return msg, nil
}

// ValidatePing checks that p is a ping packet whose message, if any, is a
// string.
func ValidatePing(p *Packet) error {
	_, err := PingMessage(p)
	return err
}
