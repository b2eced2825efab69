// Package hostinfo discovers how this machine is named and reached.
package hostinfo

import (
	"errors"
	"net"
	"slices"

	"github.com/shirou/gopsutil/v3/host"
	psnet "github.com/shirou/gopsutil/v3/net"
)

var ErrNoAddress = errors.New("no non-loopback IPv4 address found")

type Identity struct {
	Hostname string
	IP       string
}

// Discover returns the host name and the first non-loopback IPv4 address of
// an interface that is up.
func Discover() (Identity, error) {
	info, err := host.Info()
	if err != nil {
		return Identity{}, err
	}

	ifaces, err := psnet.Interfaces()
	if err != nil {
		return Identity{}, err
	}

	ip, ok := FirstIPv4(ifaces)
	if !ok {
		return Identity{Hostname: info.Hostname}, ErrNoAddress
	}

	return Identity{Hostname: info.Hostname, IP: ip}, nil
}

func FirstIPv4(ifaces []psnet.InterfaceStat) (string, bool) {
	for _, iface := range ifaces {
		if slices.Contains(iface.Flags, "loopback") || !slices.Contains(iface.Flags, "up") {
			continue
		}
		for _, a := range iface.Addrs {
			ip, _, err := net.ParseCIDR(a.Addr)
			if err != nil {
				ip = net.ParseIP(a.Addr)
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if v4 := ip.To4(); v4 != nil {
				return v4.String(), true
			}
		}
	}
	return "", false
}
