// Command probeinfo connects to a debug probe, runs the remote
// protocol handshake, and prints its negotiated version, identification
// string, target voltage, and (on v4 probes) accelerations bitmap — a
// diagnostic counterpart to
// swdbridge's full GDB server, in the spirit of the teacher's many
// single-purpose inspection tools.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kc1fsz/swdbridge/internal/logging"
	"github.com/kc1fsz/swdbridge/internal/probe"
	"github.com/kc1fsz/swdbridge/internal/remote"
	"github.com/kc1fsz/swdbridge/internal/serial"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "probeinfo:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		device    = pflag.StringP("device", "d", "", "serial device path (overrides discovery)")
		serialNum = pflag.StringP("serial", "s", "", "partial probe serial number to match during discovery")
		baud      = pflag.Int("baud", 115200, "serial baud rate")
	)
	pflag.Parse()

	logger, err := logging.New(logging.Options{Level: "warn"})
	if err != nil {
		return err
	}

	devicePath := *device
	if devicePath == "" {
		devicePath, err = serial.Discover(*serialNum, logger)
		if err != nil {
			return fmt.Errorf("discovering probe: %w", err)
		}
	}

	p, err := probe.Attach(devicePath, *baud, logger)
	if err != nil {
		return fmt.Errorf("attaching probe: %w", err)
	}
	defer p.Close()

	ident, err := p.Generic.ProtocolStart()
	if err != nil {
		ident = fmt.Sprintf("<unavailable: %v>", err)
	}
	voltage, err := p.Generic.TargetVoltage()
	if err != nil {
		voltage = fmt.Sprintf("<unavailable: %v>", err)
	}

	fmt.Printf("device:       %s\n", devicePath)
	fmt.Printf("identity:     %s\n", ident)
	fmt.Printf("version:      %s\n", p.Negotiated.Version)
	fmt.Printf("target volts: %s\n", voltage)

	if p.Negotiated.Version == remote.V4 {
		caps := p.Negotiated.Capabilities
		fmt.Printf("accelerations: adiv5=%v cortexar=%v riscv=%v adiv6=%v\n",
			caps.Accelerations.Has(remote.AccelADIv5),
			caps.Accelerations.Has(remote.AccelCortexAR),
			caps.Accelerations.Has(remote.AccelRISCV),
			caps.Accelerations.Has(remote.AccelADIv6),
		)
	}

	return nil
}
