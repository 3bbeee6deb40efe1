package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/barishamil/kde-connect-protocol/internal/protocol"
	"github.com/google/uuid"
)

const FileName = "config.toml"

var (
	ErrInvalidDeviceID   = errors.New("config: device id must be 32-38 characters of [A-Za-z0-9_]")
	ErrInvalidDeviceName = errors.New("config: device name is empty")
)

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]{32,38}$`)

// DefaultCapabilities are announced when the config file names none.
var DefaultCapabilities = []protocol.Capability{protocol.TypePing, protocol.TypePair}

type fileConfig struct {
	DeviceID             string   `toml:"device_id"`
	DeviceName           string   `toml:"device_name"`
	DeviceType           string   `toml:"device_type"`
	IncomingCapabilities []string `toml:"incoming_capabilities"`
	OutgoingCapabilities []string `toml:"outgoing_capabilities"`
}

// HostConfig is the local device identity. It implements
// protocol.HostConfiguration.
type HostConfig struct {
	ID       string
	Name     string
	Type     protocol.DeviceType
	Incoming protocol.CapabilitySet
	Outgoing protocol.CapabilitySet
}

var _ protocol.HostConfiguration = (*HostConfig)(nil)

func (c *HostConfig) DeviceID() string                             { return c.ID }
func (c *HostConfig) DeviceName() string                           { return c.Name }
func (c *HostConfig) DeviceType() protocol.DeviceType              { return c.Type }
func (c *HostConfig) IncomingCapabilities() protocol.CapabilitySet { return c.Incoming }
func (c *HostConfig) OutgoingCapabilities() protocol.CapabilitySet { return c.Outgoing }

// Dir returns the per-user config directory, creating it if needed.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "kde-connect-protocol")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// DefaultPath is Dir()/config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// NewDeviceID returns a fresh id in the form KDE Connect peers expect:
// a UUID with underscores instead of dashes.
func NewDeviceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "_")
}

// New returns a config for a freshly installed device.
func New(deviceName string) *HostConfig {
	return &HostConfig{
		ID:       NewDeviceID(),
		Name:     deviceName,
		Type:     protocol.DeviceTypeDesktop,
		Incoming: protocol.NewCapabilitySet(DefaultCapabilities...),
		Outgoing: protocol.NewCapabilitySet(DefaultCapabilities...),
	}
}

// Load reads and validates the config at path. Keys left out of the file
// get defaults; device_id and device_name are required.
func Load(path string) (*HostConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	cfg := &HostConfig{
		ID:       strings.TrimSpace(raw.DeviceID),
		Name:     strings.TrimSpace(raw.DeviceName),
		Type:     protocol.DeviceTypeDesktop,
		Incoming: protocol.NewCapabilitySet(DefaultCapabilities...),
		Outgoing: protocol.NewCapabilitySet(DefaultCapabilities...),
	}

	if meta.IsDefined("device_type") {
		t, err := protocol.ParseDeviceType(raw.DeviceType)
		if err != nil {
			return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		cfg.Type = t
	}
	if meta.IsDefined("incoming_capabilities") {
		cfg.Incoming = capabilities(raw.IncomingCapabilities)
	}
	if meta.IsDefined("outgoing_capabilities") {
		cfg.Outgoing = capabilities(raw.OutgoingCapabilities)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// LoadOrCreate loads path, or creates and saves a new config when the file
// does not exist yet. A non-empty deviceName replaces the stored name.
func LoadOrCreate(path, deviceName string) (*HostConfig, error) {
	deviceName = strings.TrimSpace(deviceName)
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		if deviceName == "" {
			deviceName = "KDE Connect Device"
		}
		cfg = New(deviceName)
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if deviceName != "" && cfg.Name != deviceName {
		cfg.Name = deviceName
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *HostConfig) Validate() error {
	if !deviceIDPattern.MatchString(c.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceID, c.ID)
	}
	if c.Name == "" {
		return ErrInvalidDeviceName
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %q", protocol.ErrInvalidDeviceType, c.Type)
	}
	return nil
}

// Save writes the config to path with owner-only permissions.
func (c *HostConfig) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	raw := fileConfig{
		DeviceID:             c.ID,
		DeviceName:           c.Name,
		DeviceType:           string(c.Type),
		IncomingCapabilities: c.Incoming.Strings(),
		OutgoingCapabilities: c.Outgoing.Strings(),
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return fmt.Errorf("config encode failed: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0600)
}

func capabilities(items []string) protocol.CapabilitySet {
	set := protocol.NewCapabilitySet()
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			set.Add(protocol.Capability(item))
		}
	}
	return set
}
