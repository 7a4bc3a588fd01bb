//go:build darwin

package serial

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Discover on macOS follows spec.md §6's documented convention directly:
// the probe enumerates as /dev/cu.usbmodem<serial>1. There is no by-id
// symlink farm or udev to consult, so a serial filter is mandatory unless
// exactly one usbmodem device is present.
func Discover(serialFilter string, logger *log.Logger) (string, error) {
	if serialFilter == "" {
		matches, _ := filepath.Glob("/dev/cu.usbmodem*1")
		if len(matches) != 1 {
			return "", fmt.Errorf("serial: found %d usbmodem devices %v; a serial number filter is required", len(matches), matches)
		}
		if logger != nil {
			logger.Debug("probe found", "device", matches[0])
		}
		return matches[0], nil
	}
	path := fmt.Sprintf("/dev/cu.usbmodem%s1", serialFilter)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("serial: %s not present: %w", path, err)
	}
	if logger != nil {
		logger.Debug("probe found", "device", path)
	}
	return path, nil
}
