// Package netif picks the dock network MAC address from the local
// interfaces.
package netif

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/kilianp07/dockid/infra/logger"
)

const (
	// NotFound is reported when no interface has a usable hardware address.
	NotFound = "NOT_FOUND"
	// EnumerationError is reported when listing interfaces fails.
	EnumerationError = "ERROR"
)

// DefaultPreferred is the interface preference order on dock hardware.
var DefaultPreferred = []string{"eth0", "usb0", "rndis0"}

// Interface is a name and its hardware address as reported by the OS. An
// empty HardwareAddr means the interface has none.
type Interface struct {
	Name         string
	HardwareAddr string
}

// Lister enumerates the local network interfaces in OS order.
type Lister func(ctx context.Context) ([]Interface, error)

// SystemLister lists interfaces through gopsutil.
func SystemLister(ctx context.Context) ([]Interface, error) {
	stats, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	out := make([]Interface, 0, len(stats))
	for _, s := range stats {
		out = append(out, Interface{Name: s.Name, HardwareAddr: s.HardwareAddr})
	}
	return out, nil
}

// Resolver implements the dock MAC lookup.
type Resolver struct {
	preferred []string
	list      Lister
	log       logger.Logger
}

// NewResolver returns a Resolver. A nil lister uses SystemLister and an
// empty preference list uses DefaultPreferred.
func NewResolver(preferred []string, list Lister) *Resolver {
	if len(preferred) == 0 {
		preferred = DefaultPreferred
	}
	if list == nil {
		list = SystemLister
	}
	return &Resolver{preferred: preferred, list: list, log: logger.New("netif")}
}

// Resolve returns the MAC of the first preferred interface, else the first
// interface with a hardware address, else NotFound. Enumeration failures
// yield EnumerationError.
func (r *Resolver) Resolve(ctx context.Context) string {
	ifaces, err := r.list(ctx)
	if err != nil {
		r.log.Warnf("interface enumeration failed: %v", err)
		return EnumerationError
	}
	for _, name := range r.preferred {
		for _, iface := range ifaces {
			if !strings.EqualFold(name, iface.Name) {
				continue
			}
			if mac, ok := FormatMAC(iface.HardwareAddr); ok {
				return mac
			}
		}
	}
	for _, iface := range ifaces {
		if mac, ok := FormatMAC(iface.HardwareAddr); ok {
			return mac
		}
	}
	return NotFound
}

// FormatMAC normalises a hardware address of any length to colon separated
// upper case octets. Colon, dash and dot separators are accepted. It reports
// false for empty or unparsable addresses.
func FormatMAC(addr string) (string, bool) {
	digits := strings.NewReplacer(":", "", "-", "", ".", "").Replace(addr)
	if digits == "" {
		return "", false
	}
	// Single-digit octets such as "0:1a:2b" are padded before decoding.
	if strings.Contains(addr, ":") && len(digits)%2 != 0 {
		parts := strings.Split(addr, ":")
		for i, p := range parts {
			if len(p) == 1 {
				parts[i] = "0" + p
			}
		}
		digits = strings.Join(parts, "")
	}
	hw, err := hex.DecodeString(digits)
	if err != nil || len(hw) == 0 {
		return "", false
	}
	octets := make([]string, len(hw))
	for i, b := range hw {
		octets[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(octets, ":"), true
}
