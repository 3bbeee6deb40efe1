package protocol

import (
	"fmt"
	"sort"
	"strings"
)

// Capability names a packet type a device can send or receive,
// e.g. "kdeconnect.ping".
type Capability string

// CapabilitySet is an unordered set of capabilities. It goes on the wire as
// an array.
type CapabilitySet map[Capability]struct{}

func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

func capabilitySetFromStrings(items []string) CapabilitySet {
	s := make(CapabilitySet, len(items))
	for _, item := range items {
		s[Capability(item)] = struct{}{}
	}
	return s
}

func (s CapabilitySet) Add(c Capability) {
	s[c] = struct{}{}
}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

func (s CapabilitySet) Len() int {
	return len(s)
}

func (s CapabilitySet) Sorted() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted wire form of the set.
func (s CapabilitySet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, c := range sorted {
		out[i] = string(c)
	}
	return out
}

func (s CapabilitySet) Equal(other CapabilitySet) bool {
	if len(s) != len(other) {
		return false
	}
	for c := range s {
		if !other.Has(c) {
			return false
		}
	}
	return true
}

// DeviceType is the kind of device announced in an identity packet.
type DeviceType string

const (
	DeviceTypeUnknown DeviceType = "unknown"
	DeviceTypeDesktop DeviceType = "desktop"
	DeviceTypeLaptop  DeviceType = "laptop"
	DeviceTypePhone   DeviceType = "phone"
	DeviceTypeTablet  DeviceType = "tablet"
	DeviceTypeTV      DeviceType = "tv"
)

var deviceTypes = []DeviceType{
	DeviceTypeUnknown,
	DeviceTypeDesktop,
	DeviceTypeLaptop,
	DeviceTypePhone,
	DeviceTypeTablet,
	DeviceTypeTV,
}

func (t DeviceType) Valid() bool {
	for _, known := range deviceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseDeviceType accepts any known device type, ignoring case and
// surrounding space. "smartphone" is accepted as an alias of phone.
func ParseDeviceType(s string) (DeviceType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "smartphone" {
		return DeviceTypePhone, nil
	}
	t := DeviceType(norm)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDeviceType, s)
	}
	return t, nil
}
