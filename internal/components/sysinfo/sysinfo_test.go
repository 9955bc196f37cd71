package sysinfo

import (
	"context"
	"testing"

	"shiptracker/internal/components/telemetry"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/stretchr/testify/require"
)

func TestFormatUptime(t *testing.T) {
	require.Equal(t, "0 minutes", FormatUptime(59))
	require.Equal(t, "1 minute", FormatUptime(60))
	require.Equal(t, "125 minutes", FormatUptime(125*60+30))
}

func TestFormatDiskUsage(t *testing.T) {
	require.Equal(t, Unknown, FormatDiskUsage(nil))
	require.Equal(t, Unknown, FormatDiskUsage(&disk.UsageStat{}))
	require.Equal(
		t,
		"3.0 GB used / 32 GB total (9% used)",
		FormatDiskUsage(&disk.UsageStat{
			Total:       32_000_000_000,
			Used:        3_000_000_000,
			UsedPercent: 9.375,
		}),
	)
}

func TestPrimaryAddress(t *testing.T) {
	testCases := []struct {
		name       string
		interfaces net.InterfaceStatList
		expected   string
	}{
		{
			name:     "no interfaces",
			expected: "",
		},
		{
			name: "skips loopback and down interfaces",
			interfaces: net.InterfaceStatList{
				{Name: "lo", Flags: []string{"up", "loopback"}, Addrs: net.InterfaceAddrList{{Addr: "127.0.0.1/8"}}},
				{Name: "eth0", Flags: []string{"broadcast"}, Addrs: net.InterfaceAddrList{{Addr: "10.0.0.2/24"}}},
				{Name: "wlan0", Flags: []string{"up", "broadcast"}, Addrs: net.InterfaceAddrList{{Addr: "192.168.1.42/24"}}},
			},
			expected: "192.168.1.42",
		},
		{
			name: "prefers ipv4 over ipv6",
			interfaces: net.InterfaceStatList{
				{Name: "eth0", Flags: []string{"up"}, Addrs: net.InterfaceAddrList{
					{Addr: "fe80::1/64"},
					{Addr: "2001:db8::5/64"},
					{Addr: "192.168.1.7/24"},
				}},
			},
			expected: "192.168.1.7",
		},
		{
			name: "falls back to global ipv6",
			interfaces: net.InterfaceStatList{
				{Name: "eth0", Flags: []string{"up"}, Addrs: net.InterfaceAddrList{
					{Addr: "fe80::1/64"},
					{Addr: "2001:db8::5/64"},
				}},
			},
			expected: "2001:db8::5",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, PrimaryAddress(test.interfaces))
		})
	}
}

func TestHostNeverEmpty(t *testing.T) {
	h := NewHost(&telemetry.Recorder{})
	ctx := context.Background()

	require.NotEmpty(t, h.Uptime(ctx))
	require.NotEmpty(t, h.PrimaryAddress(ctx))
	require.NotEmpty(t, h.DiskUsage(ctx))

	h.DiskPath = "/definitely/not/a/mount/point"
	require.Equal(t, Unknown, h.DiskUsage(ctx))
}
