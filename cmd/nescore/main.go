// Command nescore runs the NES emulator core against a ROM file,
// either interactively through a graphics backend or headless for a
// fixed number of frames.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/rng999/nescore/internal/app"
)

func main() {
	var (
		romFile  = flag.String("rom", "", "path to an iNES ROM file")
		confFile = flag.String("config", "", "path to a JSON configuration file")
		headless = flag.Bool("headless", false, "run without a graphics window")
		frames   = flag.Int("frames", 0, "stop after this many frames (0 = unbounded)")
		logLevel = flag.String("log-level", "", "glog verbosity level, e.g. 1 or 2 (sets -v)")
	)
	flag.Parse()

	if *logLevel != "" {
		flag.Set("v", *logLevel)
	}
	defer glog.Flush()

	application, err := app.NewWithMode(*confFile, *headless)
	if err != nil {
		glog.Exitf("failed to create application: %v", err)
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			glog.Errorf("cleanup error: %v", err)
		}
	}()

	if *frames > 0 {
		application.GetConfig().Emulation.FrameCap = *frames
	}

	if *romFile != "" {
		if err := application.LoadROM(*romFile); err != nil {
			glog.Exitf("failed to load ROM %q: %v", *romFile, err)
		}
	} else if *headless {
		fmt.Fprintln(os.Stderr, "headless mode requires -rom")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		glog.Exitf("application run error: %v", err)
	}
}
