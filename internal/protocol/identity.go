package protocol

import (
	"fmt"
	"math"
)

const (
	TypeIdentity = "kdeconnect.identity"

	// ProtocolVersion is announced in every identity packet we build.
	ProtocolVersion uint = 7
)

const (
	fieldDeviceID             = "deviceId"
	fieldDeviceName           = "deviceName"
	fieldDeviceType           = "deviceType"
	fieldProtocolVersion      = "protocolVersion"
	fieldTCPPort              = "tcpPort"
	fieldIncomingCapabilities = "incomingCapabilities"
	fieldOutgoingCapabilities = "outgoingCapabilities"
)

// HostConfiguration supplies the local device identity.
type HostConfiguration interface {
	DeviceID() string
	DeviceName() string
	DeviceType() DeviceType
	IncomingCapabilities() CapabilitySet
	OutgoingCapabilities() CapabilitySet
}

// NewIdentityPacket builds the identity packet announcing cfg. Entries in
// additional win over the base fields, which is how transports attach
// things like tcpPort. The packet gets its own copy of additional.
func NewIdentityPacket(cfg HostConfiguration, additional Body) *Packet {
	base := Body{
		fieldDeviceID:             cfg.DeviceID(),
		fieldDeviceName:           cfg.DeviceName(),
		fieldDeviceType:           string(cfg.DeviceType()),
		fieldProtocolVersion:      ProtocolVersion,
		fieldIncomingCapabilities: cfg.IncomingCapabilities().Strings(),
		fieldOutgoingCapabilities: cfg.OutgoingCapabilities().Strings(),
	}
	body := additional.Clone()
	for k, v := range base {
		if !body.Has(k) {
			body[k] = v
		}
	}
	return New(TypeIdentity, body)
}

// IdentityInfo holds every field of a validated identity packet.
type IdentityInfo struct {
	DeviceID             string
	DeviceName           string
	DeviceType           DeviceType
	ProtocolVersion      uint
	TCPPort              uint16
	HasTCPPort           bool
	IncomingCapabilities CapabilitySet
	OutgoingCapabilities CapabilitySet
}

// Identity reads identity fields out of a generic packet. Nothing is checked
// up front: every accessor verifies the packet type first and then its own
// field.
type Identity struct {
	p *Packet
}

func IdentityOf(p *Packet) Identity {
	return Identity{p: p}
}

func (id Identity) body() (Body, error) {
	if id.p == nil || id.p.Type != TypeIdentity {
		return nil, wrongType(TypeIdentity, id.p)
	}
	return id.p.Body, nil
}

func (id Identity) DeviceID() (string, error) {
	return id.str(fieldDeviceID, ErrInvalidDeviceID)
}

func (id Identity) DeviceName() (string, error) {
	return id.str(fieldDeviceName, ErrInvalidDeviceName)
}

// DeviceType returns the announced type without checking it against the
// known vocabulary.
func (id Identity) DeviceType() (DeviceType, error) {
	s, err := id.str(fieldDeviceType, ErrInvalidDeviceType)
	return DeviceType(s), err
}

func (id Identity) ProtocolVersion() (uint, error) {
	body, err := id.body()
	if err != nil {
		return 0, err
	}
	v, ok := body.Uint(fieldProtocolVersion, math.MaxUint32)
	if !ok {
		return 0, invalidField(ErrInvalidProtocolVersion, body, fieldProtocolVersion)
	}
	return uint(v), nil
}

// HasTCPPort reports whether the packet carries a tcpPort. Discovery
// broadcasts do, identity packets sent over an established link may not.
func (id Identity) HasTCPPort() bool {
	body, err := id.body()
	return err == nil && body.Has(fieldTCPPort)
}

// TCPPort fails with ErrInvalidTCPPort when the port is absent; check
// HasTCPPort first when the port is optional.
func (id Identity) TCPPort() (uint16, error) {
	body, err := id.body()
	if err != nil {
		return 0, err
	}
	v, ok := body.Uint(fieldTCPPort, math.MaxUint16)
	if !ok {
		return 0, invalidField(ErrInvalidTCPPort, body, fieldTCPPort)
	}
	return uint16(v), nil
}

func (id Identity) IncomingCapabilities() (CapabilitySet, error) {
	return id.capabilities(fieldIncomingCapabilities, ErrInvalidIncomingCapabilities)
}

func (id Identity) OutgoingCapabilities() (CapabilitySet, error) {
	return id.capabilities(fieldOutgoingCapabilities, ErrInvalidOutgoingCapabilities)
}

// Info validates and returns every field. tcpPort is only checked when
// present.
func (id Identity) Info() (IdentityInfo, error) {
	var (
		info IdentityInfo
		err  error
	)
	if info.DeviceID, err = id.DeviceID(); err != nil {
		return IdentityInfo{}, err
	}
	if info.DeviceName, err = id.DeviceName(); err != nil {
		return IdentityInfo{}, err
	}
	if info.DeviceType, err = id.DeviceType(); err != nil {
		return IdentityInfo{}, err
	}
	if info.ProtocolVersion, err = id.ProtocolVersion(); err != nil {
		return IdentityInfo{}, err
	}
	if id.HasTCPPort() {
		if info.TCPPort, err = id.TCPPort(); err != nil {
			return IdentityInfo{}, err
		}
		info.HasTCPPort = true
	}
	if info.IncomingCapabilities, err = id.IncomingCapabilities(); err != nil {
		return IdentityInfo{}, err
	}
	if info.OutgoingCapabilities, err = id.OutgoingCapabilities(); err != nil {
		return IdentityInfo{}, err
	}
	return info, nil
}

// ValidateIdentity is the registry validator for identity packets.
func ValidateIdentity(p *Packet) error {
	_, err := IdentityOf(p).Info()
	return err
}

func (id Identity) str(field string, invalid error) (string, error) {
	body, err := id.body()
	if err != nil {
		return "", err
	}
	s, ok := body.String(field)
	if !ok {
		return "", invalidField(invalid, body, field)
	}
	return s, nil
}

func (id Identity) capabilities(field string, invalid error) (CapabilitySet, error) {
	body, err := id.body()
	if err != nil {
		return nil, err
	}
	items, ok := body.Strings(field)
	if !ok {
		return nil, invalidField(invalid, body, field)
	}
	return capabilitySetFromStrings(items), nil
}

func invalidField(sentinel error, body Body, field string) error {
	v, ok := body[field]
	if !ok {
		return fmt.Errorf("%w: %s missing", sentinel, field)
	}
	return fmt.Errorf("%w: %s has type %T", sentinel, field, v)
}
