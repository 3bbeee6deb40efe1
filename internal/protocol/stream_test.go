package protocol

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WritePacket(NewIdentityPacket(testHost(), Body{"tcpPort": 1716})))
	require.NoError(t, w.WritePacket(NewPingPacket("hi")))

	r := NewReader(&buf)
	first, err := r.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, TypeIdentity, first.Type)
	require.NoError(t, ValidateIdentity(first))

	second, err := r.ReadPacket()
	require.NoError(t, err)
	msg, err := PingMessage(second)
	require.NoError(t, err)
	assert.Equal(t, "hi", msg)

	_, err = r.ReadPacket()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriterRejectsUnencodable(t *testing.T) {
	var buf bytes.Buffer
	err := NewWriter(&buf).WritePacket(New(TypePing, Body{"bad": make(chan int)}))

	var encErr *EncodingError
	assert.ErrorAs(t, err, &encErr)
	assert.Zero(t, buf.Len())
}

func TestWriterConcurrent(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.WritePacket(NewPingPacket(strings.Repeat("x", 100))))
		}()
	}
	wg.Wait()

	r := NewReader(&buf)
	count := 0
	for {
		_, err := r.ReadPacket()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 20, count)
}

func TestReaderSkipsMalformed(t *testing.T) {
	input := strings.Join([]string{
		`not json`,
		``,
		`[1,2,3]`,
		`{"id":1,"type":"kdeconnect.ping","body":"oops"}`,
		`{"id":2,"type":"kdeconnect.ping","body":{}}`,
	}, "\n") + "\n"

	var logs bytes.Buffer
	r := NewReader(strings.NewReader(input), WithLogger(zerolog.New(&logs)))

	p, err := r.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.ID)
	assert.Equal(t, 3, strings.Count(logs.String(), "dropping packet"))

	_, err = r.ReadPacket()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderTrailingPartialPacket(t *testing.T) {
	r := NewReader(strings.NewReader(`{"id":2,"type":"kdeconnect.ping","body":{}}`))
	_, err := r.ReadPacket()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReaderDropsOversizedPacket(t *testing.T) {
	big := New(TypePing, Body{"message": strings.Repeat("a", 10000)})
	small := NewPingPacket("ok")

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WritePacket(big))
	require.NoError(t, w.WritePacket(small))

	var logs bytes.Buffer
	r := NewReader(&buf, WithMaxPacketSize(1024), WithLogger(zerolog.New(&logs)))

	p, err := r.ReadPacket()
	require.NoError(t, err)
	msg, err := PingMessage(p)
	require.NoError(t, err)
	assert.Equal(t, "ok", msg)
	assert.Contains(t, logs.String(), "packet too large")
}
