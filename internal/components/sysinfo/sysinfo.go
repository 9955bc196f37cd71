package sysinfo

import (
	"context"
	"fmt"
	"net/netip"
	"slices"

	"shiptracker/internal/components/telemetry"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/net"
)

// Unknown is returned by every API method that could not gather its value.
const Unknown = "Unknown"

const (
	report_sysinfo_uptime  = "sysinfo.uptime"
	report_sysinfo_address = "sysinfo.address"
	report_sysinfo_disk    = "sysinfo.disk"
)

// API reports best-effort host telemetry. Each method fails independently and
// returns Unknown instead of an error.
//
// note: fault injection point
type API interface {
	Uptime(ctx context.Context) string
	PrimaryAddress(ctx context.Context) string
	DiskUsage(ctx context.Context) string
}

// Host is the API implementation backed by gopsutil.
type Host struct {
	// DiskPath is the mount point DiskUsage reports on.
	DiskPath string

	tel telemetry.API
}

func NewHost(tel telemetry.API) Host {
	return Host{
		DiskPath: "/",
		tel:      telemetry.NewScopedAPI("sysinfo", tel),
	}
}

func (h Host) Uptime(ctx context.Context) string {
	seconds, err := host.UptimeWithContext(ctx)
	if err != nil {
		h.tel.ReportWarning(report_sysinfo_uptime, err)
		return Unknown
	}
	return FormatUptime(seconds)
}

func (h Host) PrimaryAddress(ctx context.Context) string {
	interfaces, err := net.InterfacesWithContext(ctx)
	if err != nil {
		h.tel.ReportWarning(report_sysinfo_address, err)
		return Unknown
	}
	addr := PrimaryAddress(interfaces)
	if addr == "" {
		h.tel.ReportWarning(report_sysinfo_address, fmt.Errorf("no non-loopback address"))
		return Unknown
	}
	return addr
}

func (h Host) DiskUsage(ctx context.Context) string {
	usage, err := disk.UsageWithContext(ctx, h.DiskPath)
	if err != nil {
		h.tel.ReportWarning(report_sysinfo_disk, err, h.DiskPath)
		return Unknown
	}
	return FormatDiskUsage(usage)
}

// FormatUptime renders an uptime in whole minutes.
func FormatUptime(seconds uint64) string {
	minutes := seconds / 60
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// FormatDiskUsage renders usage as "<used> used / <total> total (<pct>% used)".
func FormatDiskUsage(usage *disk.UsageStat) string {
	if usage == nil || usage.Total == 0 {
		return Unknown
	}
	return fmt.Sprintf(
		"%s used / %s total (%.0f%% used)",
		humanize.Bytes(usage.Used),
		humanize.Bytes(usage.Total),
		usage.UsedPercent,
	)
}

// PrimaryAddress returns the first IPv4 address of the first interface that is
// up and not a loopback, falling back to the first global IPv6 address.
func PrimaryAddress(interfaces net.InterfaceStatList) string {
	var fallback string
	for _, iface := range interfaces {
		if !slices.Contains(iface.Flags, "up") || slices.Contains(iface.Flags, "loopback") {
			continue
		}
		for _, a := range iface.Addrs {
			prefix, err := netip.ParsePrefix(a.Addr)
			if err != nil {
				continue
			}
			ip := prefix.Addr()
			if ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				continue
			}
			if ip.Is4() {
				return ip.String()
			}
			if fallback == "" {
				fallback = ip.String()
			}
		}
	}
	return fallback
}
