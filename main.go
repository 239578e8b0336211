/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/spaghettifunk/parcel/engine"
	"github.com/spaghettifunk/parcel/engine/config"
	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/testbed"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a TOML configuration file")
	frames := pflag.Uint64P("frames", "n", 0, "stop after this many frames, overriding the configuration")
	pflag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			core.LogFatal("%s", err)
		}
		cfg = loaded
	}
	if pflag.CommandLine.Changed("frames") {
		cfg.Frames = *frames
	}

	tb := testbed.NewTestGame(cfg)

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogFatal("%s", err)
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("%s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// stop the frame loop on the first signal, shutdown happens below
	go func() {
		<-sigCh
		e.Stop()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("Shutdown: %s", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
