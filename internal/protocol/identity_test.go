package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	id, name string
	kind     DeviceType
	in, out  CapabilitySet
}

func (h fakeHost) DeviceID() string                    { return h.id }
func (h fakeHost) DeviceName() string                  { return h.name }
func (h fakeHost) DeviceType() DeviceType              { return h.kind }
func (h fakeHost) IncomingCapabilities() CapabilitySet { return h.in }
func (h fakeHost) OutgoingCapabilities() CapabilitySet { return h.out }

func testHost() fakeHost {
	return fakeHost{
		id:   "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		name: "Workstation",
		kind: DeviceTypeDesktop,
		in:   NewCapabilitySet("kdeconnect.ping", "kdeconnect.share.request"),
		out:  NewCapabilitySet("kdeconnect.ping"),
	}
}

func TestNewIdentityPacket(t *testing.T) {
	host := testHost()
	p := NewIdentityPacket(host, nil)

	assert.Equal(t, TypeIdentity, p.Type)
	assert.Equal(t, host.id, p.Body["deviceId"])
	assert.Equal(t, host.name, p.Body["deviceName"])
	assert.Equal(t, "desktop", p.Body["deviceType"])
	assert.Equal(t, uint(7), p.Body["protocolVersion"])
	assert.Equal(t, []string{"kdeconnect.ping", "kdeconnect.share.request"}, p.Body["incomingCapabilities"])
	assert.Equal(t, []string{"kdeconnect.ping"}, p.Body["outgoingCapabilities"])
	assert.False(t, p.Body.Has("tcpPort"))

	id := IdentityOf(p)
	version, err := id.ProtocolVersion()
	require.NoError(t, err)
	assert.Equal(t, ProtocolVersion, version)
}

func TestNewIdentityPacketAdditionalPropertiesWin(t *testing.T) {
	p := NewIdentityPacket(testHost(), Body{
		"tcpPort":    1716,
		"deviceName": "Renamed",
	})

	id := IdentityOf(p)
	port, err := id.TCPPort()
	require.NoError(t, err)
	assert.Equal(t, uint16(1716), port)

	name, err := id.DeviceName()
	require.NoError(t, err)
	assert.Equal(t, "Renamed", name)
}

func TestNewIdentityPacketCopiesAdditional(t *testing.T) {
	additional := Body{"tcpPort": 1716}
	p := NewIdentityPacket(testHost(), additional)

	assert.Len(t, additional, 1)
	additional["tcpPort"] = 1739
	port, err := IdentityOf(p).TCPPort()
	require.NoError(t, err)
	assert.Equal(t, uint16(1716), port)
}

func TestIdentitySurvivesWire(t *testing.T) {
	host := testHost()
	p := NewIdentityPacket(host, Body{"tcpPort": uint16(1739)})

	data, err := p.Serialize()
	require.NoError(t, err)
	parsed, err := Parse(data)
	require.NoError(t, err)

	info, err := IdentityOf(parsed).Info()
	require.NoError(t, err)
	assert.Equal(t, host.id, info.DeviceID)
	assert.Equal(t, host.name, info.DeviceName)
	assert.Equal(t, DeviceTypeDesktop, info.DeviceType)
	assert.Equal(t, uint(7), info.ProtocolVersion)
	assert.True(t, info.HasTCPPort)
	assert.Equal(t, uint16(1739), info.TCPPort)
	assert.True(t, host.in.Equal(info.IncomingCapabilities))
	assert.True(t, host.out.Equal(info.OutgoingCapabilities))
}

func TestIdentityAccessorsRejectWrongType(t *testing.T) {
	// The body is a valid identity body; only the type is wrong.
	p := NewIdentityPacket(testHost(), Body{"tcpPort": 1716})
	p.Type = TypePing

	for _, id := range []Identity{IdentityOf(p), IdentityOf(nil)} {
		_, err := id.DeviceID()
		assert.ErrorIs(t, err, ErrWrongType)
		_, err = id.DeviceName()
		assert.ErrorIs(t, err, ErrWrongType)
		_, err = id.DeviceType()
		assert.ErrorIs(t, err, ErrWrongType)
		_, err = id.ProtocolVersion()
		assert.ErrorIs(t, err, ErrWrongType)
		_, err = id.TCPPort()
		assert.ErrorIs(t, err, ErrWrongType)
		_, err = id.IncomingCapabilities()
		assert.ErrorIs(t, err, ErrWrongType)
		_, err = id.OutgoingCapabilities()
		assert.ErrorIs(t, err, ErrWrongType)
		_, err = id.Info()
		assert.ErrorIs(t, err, ErrWrongType)
		assert.False(t, id.HasTCPPort())
	}
}

func TestIdentityWrongTypeWithEmptyBody(t *testing.T) {
	_, err := IdentityOf(New(TypePair, nil)).DeviceID()
	assert.ErrorIs(t, err, ErrWrongType)
	assert.NotErrorIs(t, err, ErrInvalidDeviceID)
}

func TestIdentityFieldValidation(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		read  func(Identity) error
		want  error
	}{
		{"device id number", "deviceId", 12, func(id Identity) error { _, err := id.DeviceID(); return err }, ErrInvalidDeviceID},
		{"device name null", "deviceName", nil, func(id Identity) error { _, err := id.DeviceName(); return err }, ErrInvalidDeviceName},
		{"device type list", "deviceType", []any{"desktop"}, func(id Identity) error { _, err := id.DeviceType(); return err }, ErrInvalidDeviceType},
		{"protocol version string", "protocolVersion", "7", func(id Identity) error { _, err := id.ProtocolVersion(); return err }, ErrInvalidProtocolVersion},
		{"protocol version negative", "protocolVersion", json.Number("-7"), func(id Identity) error { _, err := id.ProtocolVersion(); return err }, ErrInvalidProtocolVersion},
		{"tcp port too large", "tcpPort", json.Number("70000"), func(id Identity) error { _, err := id.TCPPort(); return err }, ErrInvalidTCPPort},
		{"tcp port fraction", "tcpPort", json.Number("1716.5"), func(id Identity) error { _, err := id.TCPPort(); return err }, ErrInvalidTCPPort},
		{"incoming not array", "incomingCapabilities", "kdeconnect.ping", func(id Identity) error { _, err := id.IncomingCapabilities(); return err }, ErrInvalidIncomingCapabilities},
		{"incoming mixed", "incomingCapabilities", []any{"kdeconnect.ping", 3}, func(id Identity) error { _, err := id.IncomingCapabilities(); return err }, ErrInvalidIncomingCapabilities},
		{"outgoing object", "outgoingCapabilities", map[string]any{}, func(id Identity) error { _, err := id.OutgoingCapabilities(); return err }, ErrInvalidOutgoingCapabilities},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewIdentityPacket(testHost(), Body{tt.field: tt.value})
			id := IdentityOf(p)

			assert.ErrorIs(t, tt.read(id), tt.want)
			_, err := id.Info()
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, ValidateIdentity(p), tt.want)
		})
	}
}

func TestIdentityMissingFields(t *testing.T) {
	required := map[string]error{
		"deviceId":             ErrInvalidDeviceID,
		"deviceName":           ErrInvalidDeviceName,
		"deviceType":           ErrInvalidDeviceType,
		"protocolVersion":      ErrInvalidProtocolVersion,
		"incomingCapabilities": ErrInvalidIncomingCapabilities,
		"outgoingCapabilities": ErrInvalidOutgoingCapabilities,
	}
	for field, want := range required {
		t.Run(field, func(t *testing.T) {
			p := NewIdentityPacket(testHost(), nil)
			delete(p.Body, field)
			assert.ErrorIs(t, ValidateIdentity(p), want)
		})
	}
}

func TestIdentityTCPPortOptional(t *testing.T) {
	p := NewIdentityPacket(testHost(), nil)
	id := IdentityOf(p)

	assert.False(t, id.HasTCPPort())
	_, err := id.TCPPort()
	assert.ErrorIs(t, err, ErrInvalidTCPPort)

	info, err := id.Info()
	require.NoError(t, err)
	assert.False(t, info.HasTCPPort)
	assert.Zero(t, info.TCPPort)
}

func TestIdentityCapabilitiesCollapseDuplicates(t *testing.T) {
	raw := `{"id":1,"type":"kdeconnect.identity","body":{"deviceId":"x","deviceName":"y","deviceType":"phone","protocolVersion":7,` +
		`"incomingCapabilities":["a","a","b"],"outgoingCapabilities":[]}}`
	p, err := Parse([]byte(raw))
	require.NoError(t, err)

	in, err := IdentityOf(p).IncomingCapabilities()
	require.NoError(t, err)
	assert.Equal(t, 2, in.Len())
	assert.True(t, in.Has("a"))
	assert.True(t, in.Has("b"))

	out, err := IdentityOf(p).OutgoingCapabilities()
	require.NoError(t, err)
	assert.Zero(t, out.Len())
}

func TestIdentityDoesNotCheckVocabulary(t *testing.T) {
	p := NewIdentityPacket(testHost(), Body{"deviceType": "toaster", "incomingCapabilities": []any{"not.a.plugin"}})

	kind, err := IdentityOf(p).DeviceType()
	require.NoError(t, err)
	assert.Equal(t, DeviceType("toaster"), kind)
	assert.False(t, kind.Valid())

	in, err := IdentityOf(p).IncomingCapabilities()
	require.NoError(t, err)
	assert.True(t, in.Has("not.a.plugin"))
}
