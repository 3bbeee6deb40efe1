package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/barishamil/kde-connect-protocol/internal/config"
	"github.com/barishamil/kde-connect-protocol/internal/protocol"
	"github.com/rs/zerolog"
)

type environment struct {
	configPath string
	in         io.Reader
	out        io.Writer
	log        zerolog.Logger
}

func (e *environment) hostConfig(name string) (*config.HostConfig, error) {
	path := e.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	if name == "" {
		host, err := os.Hostname()
		if err != nil {
			e.log.Debug().Err(err).Msg("host name unavailable, using default device name")
		}
		name = host
	}
	cfg, err := config.LoadOrCreate(path, name)
	if err != nil {
		return nil, err
	}
	e.log.Debug().Str("path", path).Str("deviceId", cfg.ID).Msg("host config loaded")
	return cfg, nil
}

type identityCmd struct {
	Name    string `help:"Device name to announce. Defaults to the host name."`
	TCPPort uint16 `name:"tcp-port" help:"Announce a TCP port (discovery broadcasts carry one)."`
	Pretty  bool   `help:"Indent the JSON output."`
}

func (c *identityCmd) Run(env *environment) error {
	cfg, err := env.hostConfig(c.Name)
	if err != nil {
		return err
	}

	var additional protocol.Body
	if c.TCPPort != 0 {
		additional = protocol.Body{"tcpPort": c.TCPPort}
	}
	p := protocol.NewIdentityPacket(cfg, additional)

	format := protocol.FormatCompact
	if c.Pretty {
		format = protocol.FormatPretty
	}
	data, err := p.Encode(format)
	if err != nil {
		return err
	}
	_, err = env.out.Write(data)
	return err
}

type inspectCmd struct {
	MaxSize int `name:"max-size" default:"${max_size}" help:"Drop packets larger than this many bytes."`
}

func (c *inspectCmd) Run(env *environment) error {
	registry := protocol.DefaultRegistry()
	reader := protocol.NewReader(env.in,
		protocol.WithLogger(env.log),
		protocol.WithMaxPacketSize(c.MaxSize),
	)

	for {
		p, err := reader.ReadPacket()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := registry.Validate(p); err != nil {
			env.log.Warn().EmbedObject(p).Err(err).Msg("invalid packet")
			fmt.Fprintf(env.out, "%d %s invalid: %v\n", p.ID, p.Type, err)
			continue
		}
		line := describe(p)
		if !registry.Known(p.Type) {
			line += " unchecked"
		}
		fmt.Fprintln(env.out, line)
	}
}

func describe(p *protocol.Packet) string {
	switch p.Type {
	case protocol.TypeIdentity:
		info, err := protocol.IdentityOf(p).Info()
		if err != nil {
			return fmt.Sprintf("%d %s invalid: %v", p.ID, p.Type, err)
		}
		port := "-"
		if info.HasTCPPort {
			port = fmt.Sprint(info.TCPPort)
		}
		return fmt.Sprintf("%d %s id=%s name=%q type=%s version=%d tcpPort=%s in=[%s] out=[%s]",
			p.ID, p.Type, info.DeviceID, info.DeviceName, info.DeviceType, info.ProtocolVersion, port,
			strings.Join(info.IncomingCapabilities.Strings(), ","),
			strings.Join(info.OutgoingCapabilities.Strings(), ","))
	case protocol.TypePair:
		pair, _ := protocol.PairOf(p).Pair()
		return fmt.Sprintf("%d %s pair=%t", p.ID, p.Type, pair)
	default:
		return fmt.Sprintf("%d %s keys=%d", p.ID, p.Type, len(p.Body))
	}
}
