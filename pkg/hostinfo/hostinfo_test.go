package hostinfo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/testcentral/outpost/pkg/hostinfo"
)

func iface(name string, flags []string, addrs ...string) psnet.InterfaceStat {
	list := psnet.InterfaceAddrList{}
	for _, a := range addrs {
		list = append(list, psnet.InterfaceAddr{Addr: a})
	}
	return psnet.InterfaceStat{Name: name, Flags: flags, Addrs: list}
}

var _ = Describe("FirstIPv4", func() {
	DescribeTable("should pick the advertised address",
		func(ifaces []psnet.InterfaceStat, want string, found bool) {
			ip, ok := hostinfo.FirstIPv4(ifaces)

			Expect(ok).To(Equal(found))
			Expect(ip).To(Equal(want))
		},
		Entry("skips loopback",
			[]psnet.InterfaceStat{
				iface("lo", []string{"up", "loopback"}, "127.0.0.1/8"),
				iface("eth0", []string{"up", "broadcast"}, "10.0.0.5/24"),
			}, "10.0.0.5", true),
		Entry("skips interfaces that are down",
			[]psnet.InterfaceStat{
				iface("eth0", []string{"broadcast"}, "10.0.0.5/24"),
				iface("eth1", []string{"up"}, "192.168.1.7/24"),
			}, "192.168.1.7", true),
		Entry("skips IPv6 addresses",
			[]psnet.InterfaceStat{
				iface("eth0", []string{"up"}, "fe80::1/64", "10.0.0.5/24"),
			}, "10.0.0.5", true),
		Entry("accepts bare addresses",
			[]psnet.InterfaceStat{
				iface("eth0", []string{"up"}, "10.0.0.5"),
			}, "10.0.0.5", true),
		Entry("nothing usable",
			[]psnet.InterfaceStat{
				iface("lo", []string{"up", "loopback"}, "127.0.0.1/8"),
			}, "", false),
	)
})
