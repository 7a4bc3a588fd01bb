// Command swdbridge is the GDB debug-bridge server: it attaches to a
// Black Magic Probe-compatible USB CDC-ACM device, negotiates the
// remote protocol, and serves GDB Remote Serial Protocol connections
// on a TCP port (spec.md §6).
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/kc1fsz/swdbridge/internal/adiv5"
	"github.com/kc1fsz/swdbridge/internal/config"
	"github.com/kc1fsz/swdbridge/internal/gdbserver"
	"github.com/kc1fsz/swdbridge/internal/logging"
	"github.com/kc1fsz/swdbridge/internal/probe"
	"github.com/kc1fsz/swdbridge/internal/remote"
	"github.com/kc1fsz/swdbridge/internal/riscv"
	"github.com/kc1fsz/swdbridge/internal/serial"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "swdbridge:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = pflag.StringP("config", "c", "", "path to swdbridge.yaml")
		gdbPort    = pflag.IntP("port", "p", 0, "GDB listener port (overrides config; 0 = use config default)")
		device     = pflag.StringP("device", "d", "", "serial device path (overrides discovery)")
		serialNum  = pflag.StringP("serial", "s", "", "partial probe serial number to match during discovery")
		baud       = pflag.Int("baud", 115200, "serial baud rate")
		apSel      = pflag.Uint8("ap", 0, "AP-select index for the default AP")
		logLevel   = pflag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
		dmiDev     = pflag.Uint8("dmi-dev", 0, "RISC-V DMI device index (only used when the probe negotiates RISC-V acceleration)")
		dmiIdle    = pflag.Int("dmi-idle-cycles", 5, "RISC-V DMI idle-cycle count between operations")
		dmiAddrLen = pflag.Int("dmi-addr-width", 7, "RISC-V DMI address width in bits")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *gdbPort != 0 {
		cfg.GDBPort = *gdbPort
	}
	if *device != "" {
		cfg.SerialDevice = *device
	}
	if *serialNum != "" {
		cfg.SerialNumber = *serialNum
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, SessionLogPattern: cfg.SessionLogPattern})
	if err != nil {
		return err
	}

	devicePath := cfg.SerialDevice
	if devicePath == "" {
		devicePath, err = serial.Discover(cfg.SerialNumber, logger)
		if err != nil {
			return fmt.Errorf("discovering probe: %w", err)
		}
	}

	p, err := probe.Attach(devicePath, *baud, logger)
	if err != nil {
		return fmt.Errorf("attaching probe: %w", err)
	}
	defer p.Close()

	if err := p.SetFrequency(cfg.FrequencyHz); err != nil {
		logger.Warn("setting comms frequency failed", "err", err)
	}

	dp := p.DP(0, 0)
	ap := adiv5.NewAP(dp, *apSel, 0)
	dmi := newDMI(p, *dmiDev, *dmiIdle, *dmiAddrLen, logger)

	newServer := func(conn net.Conn) *gdbserver.Server {
		return &gdbserver.Server{
			AP:      ap,
			Core:    gdbserver.NoCore{},
			Conn:    p.Conn,
			Logger:  logger,
			DMI:     dmi,
			NumRegs: 17,
		}
	}

	return gdbserver.ListenAndServe(cfg.GDBPort, fallbackPorts(cfg.GDBPort), newServer, logger)
}

// newDMI builds the RISC-V DMI handle backing "monitor dmi ..."
// commands, or nil when the attached probe's negotiated accelerations
// bitmap lacks RISC-V (spec.md §4.3.7) — a v0-v3 probe, or a v4 probe
// that only advertised ADIv5/ADIv6.
func newDMI(p *probe.Probe, devIndex byte, idleCycles, addrWidth int, logger *log.Logger) *riscv.DMI {
	if p.Negotiated.Version != remote.V4 {
		return nil
	}
	if !p.Negotiated.Capabilities.Accelerations.Has(remote.AccelRISCV) {
		return nil
	}
	acc, ok := p.Negotiated.Accelerator.(remote.RISCVAccelerator)
	if !ok {
		return nil
	}
	logger.Info("RISC-V DMI acceleration negotiated", "dev", devIndex, "idleCycles", idleCycles, "addrWidth", addrWidth)
	return riscv.New(acc, devIndex, idleCycles, addrWidth)
}

// fallbackPorts implements spec.md §6's "default 2000, with fallback
// to 2001-2004 if busy" — expressed relative to the configured base
// port rather than hardcoded to 2000, so a non-default GDBPort still
// gets four fallbacks.
func fallbackPorts(base int) []int {
	return []int{base + 1, base + 2, base + 3, base + 4}
}
