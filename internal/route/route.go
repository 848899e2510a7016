// Package route reconciles DNS-answer-derived routes with the kernel
// routing table. It owns a set of dynamic routes it has installed and
// never touches routes it did not create.
package route

import (
	"fmt"
	"net"
	"time"
)

// Provenance distinguishes a route installed at startup from config from
// one derived from a forwarded answer.
type Provenance int

const (
	Static Provenance = iota
	Dynamic
)

func (p Provenance) String() string {
	if p == Static {
		return "static"
	}
	return "dynamic"
}

// NextHop is either a gateway IP or a device (interface) name. Exactly
// one of Gateway/Device is set.
type NextHop struct {
	Gateway net.IP
	Device  string
}

func (n NextHop) String() string {
	if n.Gateway != nil {
		return "via " + n.Gateway.String()
	}
	return "dev " + n.Device
}

func (n NextHop) equal(other NextHop) bool {
	if n.Device != other.Device {
		return false
	}
	if (n.Gateway == nil) != (other.Gateway == nil) {
		return false
	}
	return n.Gateway == nil || n.Gateway.Equal(other.Gateway)
}

// Route is one entry in the controller's owned set.
type Route struct {
	Destination *net.IPNet
	NextHop     NextHop
	Provenance  Provenance

	// Dynamic-route provenance detail. Zone and QueryName are empty for
	// Static routes; InsertedAt is set for both kinds.
	Zone       string
	QueryName  string
	InsertedAt time.Time
}

func destinationKey(dest *net.IPNet) string {
	return dest.String()
}

// AggregateDestination truncates ip to a /prefixBits network, or returns
// a host route (/32 or /128) if prefixBits <= 0.
func AggregateDestination(ip net.IP, prefixBits int) (*net.IPNet, error) {
	if ip4 := ip.To4(); ip4 != nil {
		bits := 32
		if prefixBits > 0 && prefixBits < 32 {
			bits = prefixBits
		}
		mask := net.CIDRMask(bits, 32)
		return &net.IPNet{IP: ip4.Mask(mask), Mask: mask}, nil
	}
	if ip16 := ip.To16(); ip16 != nil {
		bits := 128
		if prefixBits > 0 && prefixBits < 128 {
			bits = prefixBits
		}
		mask := net.CIDRMask(bits, 128)
		return &net.IPNet{IP: ip16.Mask(mask), Mask: mask}, nil
	}
	return nil, fmt.Errorf("route: invalid IP %v", ip)
}
