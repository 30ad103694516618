package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	gopsnet "github.com/shirou/gopsutil/v3/net"

	"github.com/rmachado/inventra/internal/domain"
)

// Collect gathers local facts and shapes them into a report snapshot.
// Only facts that stay stable between cycles go into the hardware document;
// volatile readings (usage, load) would flood the change history.
func Collect(ctx context.Context, deviceType string) (*domain.Snapshot, error) {
	ip, mac, err := primaryInterface(ctx)
	if err != nil {
		return nil, err
	}

	hostInfo, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("host info: %w", err)
	}

	osName := strings.TrimSpace(fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion))
	status := domain.StatusOnline

	snap := &domain.Snapshot{
		Name:       &hostInfo.Hostname,
		IPAddress:  ip,
		DeviceType: &deviceType,
		OS:         &osName,
		Status:     &status,
		Hardware:   domain.ComponentMap{},
	}
	if mac != "" {
		snap.MACAddress = &mac
	}
	if hostInfo.HostID != "" {
		snap.MachineID = &hostInfo.HostID
	}

	if cpuInfo := collectCPU(ctx); cpuInfo != nil {
		snap.Hardware[domain.ComponentCPU] = cpuInfo
	}
	if ramInfo := collectRAM(ctx); ramInfo != nil {
		snap.Hardware[domain.ComponentRAM] = ramInfo
	}
	if disks := collectDisks(ctx); disks != nil {
		snap.Hardware[domain.ComponentDisk] = disks
	}
	if nets := collectNetwork(ctx); nets != nil {
		snap.NetworkInfo = nets
	}

	return snap, nil
}

// primaryInterface picks the first up, non-loopback interface carrying an
// IPv4 address.
func primaryInterface(ctx context.Context) (ip, mac string, err error) {
	ifaces, err := gopsnet.InterfacesWithContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("list interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		for _, addr := range iface.Addrs {
			candidate := strings.Split(addr.Addr, "/")[0]
			if isIPv4(candidate) && !strings.HasPrefix(candidate, "127.") {
				return candidate, strings.ToLower(iface.HardwareAddr), nil
			}
		}
	}
	return "", "", fmt.Errorf("no active interface with an IPv4 address")
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func isIPv4(s string) bool {
	return strings.Count(s, ".") == 3 && !strings.Contains(s, ":")
}

func collectCPU(ctx context.Context) map[string]interface{} {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil || len(infos) == 0 {
		return nil
	}
	info := map[string]interface{}{
		"model":  infos[0].ModelName,
		"vendor": infos[0].VendorID,
		"mhz":    infos[0].Mhz,
	}
	if physical, err := cpu.CountsWithContext(ctx, false); err == nil {
		info["cores"] = physical
	}
	if logical, err := cpu.CountsWithContext(ctx, true); err == nil {
		info["threads"] = logical
	}
	return info
}

func collectRAM(ctx context.Context) map[string]interface{} {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil
	}
	return map[string]interface{}{
		"total_gb": roundGB(vm.Total),
	}
}

func collectDisks(ctx context.Context) []interface{} {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil
	}
	var disks []interface{}
	for _, p := range partitions {
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		disks = append(disks, map[string]interface{}{
			"name":     p.Mountpoint,
			"device":   p.Device,
			"fstype":   p.Fstype,
			"total_gb": roundGB(usage.Total),
		})
	}
	return disks
}

func collectNetwork(ctx context.Context) []interface{} {
	ifaces, err := gopsnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil
	}
	var nets []interface{}
	for _, iface := range ifaces {
		if hasFlag(iface.Flags, "loopback") {
			continue
		}
		var ips []string
		for _, addr := range iface.Addrs {
			ips = append(ips, addr.Addr)
		}
		nets = append(nets, map[string]interface{}{
			"name":         iface.Name,
			"mac":          strings.ToLower(iface.HardwareAddr),
			"ip_addresses": ips,
		})
	}
	return nets
}

func roundGB(b uint64) float64 {
	gb := float64(b) / (1 << 30)
	return float64(int(gb*10+0.5)) / 10
}
