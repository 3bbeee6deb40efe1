package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultMaxPacketSize bounds a single framed packet.
const DefaultMaxPacketSize = 1 << 20

// Writer frames packets onto a stream. It is safe for concurrent use.
type Writer struct {
	w  io.Writer
	mu sync.Mutex
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) WritePacket(p *Packet) error {
	data, err := p.Serialize()
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.w.Write(data)
	return err
}

// Reader reads '\n' framed packets. Malformed packets are logged and
// skipped so one bad line does not end the stream.
type Reader struct {
	r       *bufio.Reader
	log     zerolog.Logger
	maxSize int
}

type ReaderOption func(*Reader)

func WithLogger(l zerolog.Logger) ReaderOption {
	return func(r *Reader) { r.log = l }
}

// WithMaxPacketSize drops lines longer than n bytes.
func WithMaxPacketSize(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxSize = n
		}
	}
}

func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	rd := &Reader{
		r:       bufio.NewReader(r),
		log:     zerolog.Nop(),
		maxSize: DefaultMaxPacketSize,
	}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// ReadPacket returns the next well-formed packet. It returns io.EOF when the
// stream ends on a packet boundary and io.ErrUnexpectedEOF when it ends
// inside one.
func (r *Reader) ReadPacket() (*Packet, error) {
	for {
		line, err := r.readLine()
		if errors.Is(err, ErrPacketTooLarge) {
			r.log.Warn().Err(err).Int("limit", r.maxSize).Msg("dropping packet")
			continue
		}
		if err != nil {
			return nil, err
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		p, err := Parse(line)
		if err != nil {
			r.log.Warn().Err(err).Int("size", len(line)).Msg("dropping packet")
			continue
		}
		r.log.Trace().EmbedObject(p).Msg("packet received")
		return p, nil
	}
}

func (r *Reader) readLine() ([]byte, error) {
	var (
		line     []byte
		tooLarge bool
	)
	for {
		chunk, err := r.r.ReadSlice('\n')
		if !tooLarge {
			if len(line)+len(chunk) > r.maxSize {
				tooLarge = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case err == nil:
			if tooLarge {
				return nil, fmt.Errorf("%w: over %d bytes", ErrPacketTooLarge, r.maxSize)
			}
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if tooLarge || len(bytes.TrimSpace(line)) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}
