//go:build linux

package serial

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// knownPrefixes are the probe vendor/product identifiers spec.md §6 lists
// for /dev/serial/by-id scanning.
var knownPrefixes = []string{
	"usb-Black_Sphere_Technologies_Black_Magic_Probe",
	"usb-Black_Magic_Debug_Black_Magic_Probe",
	"usb-1BitSquared_Black_Magic_Probe",
}

const endpointSuffix = "-if00"

const byIDDir = "/dev/serial/by-id"

// Discover finds exactly one matching probe device, trying the udev
// enumeration first and falling back to a plain directory scan whenever
// that returns an error (udev unavailable, e.g. no /run/udev in a minimal
// container, or no single match), per SPEC_FULL.md §6.
func Discover(serialFilter string, logger *log.Logger) (string, error) {
	if path, err := discoverUdev(serialFilter, logger); err == nil {
		return path, nil
	} else if logger != nil {
		logger.Debug("udev discovery unavailable, falling back to by-id scan", "err", err)
	}
	return discoverByID(serialFilter)
}

// discoverByID scans /dev/serial/by-id for filenames starting with one of
// knownPrefixes and ending in endpointSuffix, with serialFilter (if
// non-empty) required to match the substring immediately before the
// suffix. Exactly one match is required.
func discoverByID(serialFilter string) (string, error) {
	entries, err := os.ReadDir(byIDDir)
	if err != nil {
		return "", fmt.Errorf("serial: scanning %s: %w", byIDDir, err)
	}

	var matches []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, endpointSuffix) {
			continue
		}
		var prefix string
		for _, p := range knownPrefixes {
			if strings.HasPrefix(name, p) {
				prefix = p
				break
			}
		}
		if prefix == "" {
			continue
		}
		if serialFilter != "" {
			stem := strings.TrimSuffix(name, endpointSuffix)
			if !strings.HasSuffix(stem, serialFilter) {
				continue
			}
		}
		matches = append(matches, filepath.Join(byIDDir, name))
	}

	sort.Strings(matches)
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("serial: no probe found under %s (filter %q)", byIDDir, serialFilter)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("serial: multiple probes found under %s: %s", byIDDir, strings.Join(matches, ", "))
	}
}
