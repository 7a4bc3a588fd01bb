// Package probe owns the attach sequence: opening the serial link to
// the debug probe, running remote-protocol version negotiation, and
// handing back DP handles ready for the ADIv5 access layer.
package probe

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/kc1fsz/swdbridge/internal/adiv5"
	"github.com/kc1fsz/swdbridge/internal/remote"
	"github.com/kc1fsz/swdbridge/internal/remote/v0"
	"github.com/kc1fsz/swdbridge/internal/remote/v1"
	"github.com/kc1fsz/swdbridge/internal/remote/v2"
	"github.com/kc1fsz/swdbridge/internal/remote/v3"
	"github.com/kc1fsz/swdbridge/internal/remote/v4"
	"github.com/kc1fsz/swdbridge/internal/serial"
)

// Probe is an attached debug probe: the serial link and its
// negotiated remote protocol. Multiple DPs may be built from it when
// the JTAG chain has more than one device.
type Probe struct {
	Port       *serial.Port
	Conn       *remote.Conn
	Generic    *remote.Generic
	Negotiated remote.Negotiated
	logger     *log.Logger
}

// factories wires the per-version Accelerator constructors into the
// negotiation call without the remote package depending on its own
// subpackages (see remote.AcceleratorFactories).
var factories = remote.AcceleratorFactories{
	V0: v0.New,
	V1: v1.New,
	V2: v2.New,
	V3: v3.New,
	V4: v4.New,
}

// Attach opens devicePath at baud, starts the protocol, and negotiates
// the remote-protocol version. devicePath must already be resolved —
// callers needing USB discovery should call serial.Discover first.
func Attach(devicePath string, baud int, logger *log.Logger) (*Probe, error) {
	port, err := serial.Open(devicePath, baud, logger)
	if err != nil {
		return nil, fmt.Errorf("probe: opening %s: %w", devicePath, err)
	}

	line := serial.NewLine(port)
	conn := remote.NewConn(line, logger)
	generic := remote.NewGeneric(conn)

	if _, err := generic.ProtocolStart(); err != nil {
		port.Close()
		return nil, fmt.Errorf("probe: protocol start: %w", err)
	}

	negotiated, err := remote.Negotiate(conn, factories)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("probe: version negotiation: %w", err)
	}
	if logger != nil {
		logger.Info("probe attached", "version", negotiated.Version)
	}

	return &Probe{
		Port:       port,
		Conn:       conn,
		Generic:    generic,
		Negotiated: negotiated,
		logger:     logger,
	}, nil
}

// Close releases the serial port.
func (p *Probe) Close() error {
	return p.Port.Close()
}

// Raw builds the bit-level SWD/JTAG sequence driver for this probe's
// negotiated version. Available regardless of version, since v1-v4
// probes still answer raw 'S'/'J' requests alongside their
// acceleration (spec.md §4.3.5).
func (p *Probe) Raw() *remote.Raw {
	return remote.NewRaw(p.Conn, p.Negotiated.Version)
}

// DP builds a DP handle at the given JTAG chain position. On a v0
// probe the returned DP's operations all fail with remote.NotSupported
// (spec.md §4.3.2: v0 has no ADIv5 acceleration) — raw sequences must
// be driven directly through Raw() instead.
func (p *Probe) DP(devIndex byte, dpVersion int) *adiv5.DP {
	return adiv5.NewDP(p.Negotiated.Accelerator, devIndex, dpVersion)
}

// SelectMultidrop issues the v4 SWD-multidrop DP-version/TARGETSEL
// selection (spec.md §4.3.6) before a DP on a shared bus is
// initialized.
func (p *Probe) SelectMultidrop(dpVersion int, targetSel uint32) error {
	m := remote.NewSWDMultidrop(p.Conn)
	if err := m.SelectDPVersion(dpVersion); err != nil {
		return err
	}
	return m.SelectTarget(targetSel)
}

// AddJTAGDevices registers the full JTAG chain with the probe in scan
// order, one "HJ" request per device (spec.md §4.3.3). This must
// happen before any DP on a multi-device chain is addressed by index.
func (p *Probe) AddJTAGDevices(devices []remote.JTAGDevice) error {
	for _, dev := range devices {
		if err := p.Generic.AddJTAGDevice(dev); err != nil {
			return fmt.Errorf("probe: registering JTAG device %d: %w", dev.Index, err)
		}
	}
	return nil
}

// SetFrequency pushes the configured SWD/JTAG clock rate to the probe.
func (p *Probe) SetFrequency(hz uint32) error {
	if hz == 0 {
		return nil
	}
	return p.Generic.SetFrequency(hz)
}
