package main

import (
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/barishamil/kde-connect-protocol/internal/logging"
	"github.com/barishamil/kde-connect-protocol/internal/protocol"
)

type cli struct {
	Config string `help:"Path to the host config file." type:"path" env:"KDECONNECT_CONFIG"`

	Identity identityCmd `cmd:"" help:"Print the identity packet for this device."`
	Inspect  inspectCmd  `cmd:"" help:"Read newline-delimited packets from stdin and validate them."`
}

func options() []kong.Option {
	return []kong.Option{
		kong.Name("kdeconnect-packet"),
		kong.Description("Build and inspect KDE Connect protocol packets."),
		kong.Vars{"max_size": strconv.Itoa(protocol.DefaultMaxPacketSize)},
		kong.UsageOnError(),
	}
}

func main() {
	var c cli
	ctx := kong.Parse(&c, options()...)

	env := &environment{
		configPath: c.Config,
		in:         os.Stdin,
		out:        os.Stdout,
		log:        logging.New("kdeconnect-packet"),
	}
	ctx.FatalIfErrorf(ctx.Run(env))
}
