//go:build linux

package serial

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jochenvg/go-udev"
)

// probeVendorProduct pairs the USB vendor:product IDs of the known probe
// variants with the by-id prefix they correspond to, so udev enumeration
// and the static by-id scan agree on what counts as "a probe".
var probeVendorProduct = map[string]string{
	"1d50:6018": "usb-Black_Sphere_Technologies_Black_Magic_Probe",
	"1209:badc": "usb-Black_Magic_Debug_Black_Magic_Probe",
	"cafe:4005": "usb-1BitSquared_Black_Magic_Probe",
}

// discoverUdev enumerates tty devices via udev, filtering on the known
// vendor:product pairs above rather than parsing /dev/serial/by-id
// filenames, so it also works on systems where that symlink directory
// isn't populated.
func discoverUdev(serialFilter string, logger *log.Logger) (string, error) {
	u := udev.Udev{}
	enum := u.NewEnumerate()
	if err := enum.AddMatchSubsystem("tty"); err != nil {
		return "", fmt.Errorf("serial: udev match subsystem: %w", err)
	}

	devices, err := enum.Devices()
	if err != nil {
		return "", fmt.Errorf("serial: udev enumerate: %w", err)
	}

	var matches []string
	for _, d := range devices {
		parent := d.ParentWithSubsystemDevtype("usb", "usb_device")
		if parent == nil {
			continue
		}
		vid := parent.PropertyValue("ID_VENDOR_ID")
		pid := parent.PropertyValue("ID_MODEL_ID")
		key := strings.ToLower(vid + ":" + pid)
		if _, ok := probeVendorProduct[key]; !ok {
			continue
		}
		if serialFilter != "" {
			serial := parent.PropertyValue("ID_SERIAL_SHORT")
			if !strings.HasSuffix(serial, serialFilter) {
				continue
			}
		}
		node := d.Devnode()
		if node != "" {
			matches = append(matches, node)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("serial: udev found no probe (filter %q)", serialFilter)
	case 1:
		if logger != nil {
			logger.Debug("probe found via udev", "device", matches[0])
		}
		return matches[0], nil
	default:
		return "", fmt.Errorf("serial: udev found multiple probes: %s", strings.Join(matches, ", "))
	}
}
