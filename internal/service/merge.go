package service

import (
	"time"

	"github.com/rmachado/inventra/internal/domain"
)

// newDevice builds a device from the supplied snapshot fields (create path).
// Defaults apply only here; updates never reset a field the snapshot omits.
func newDevice(snap *domain.Snapshot, now time.Time) *domain.Device {
	d := &domain.Device{
		IPAddress:  snap.IPAddress,
		DeviceType: "unknown",
		Status:     domain.StatusUnknown,
		LastSeen:   now,
	}
	if snap.Name != nil {
		d.Name = *snap.Name
	}
	if snap.MACAddress != nil {
		d.MACAddress = snap.MACAddress
	}
	if snap.DeviceType != nil {
		d.DeviceType = *snap.DeviceType
	}
	if snap.OS != nil {
		d.OS = *snap.OS
	}
	if snap.Status != nil {
		d.Status = *snap.Status
	}
	if snap.MachineID != nil {
		d.MachineID = snap.MachineID
	}
	return d
}

// applySnapshot overwrites every device field the snapshot supplies (update
// path). Every updatable field is enumerated; nothing is set by name at
// runtime.
func applySnapshot(d *domain.Device, snap *domain.Snapshot, now time.Time) {
	d.IPAddress = snap.IPAddress
	if snap.Name != nil {
		d.Name = *snap.Name
	}
	if snap.MACAddress != nil {
		d.MACAddress = snap.MACAddress
	}
	if snap.DeviceType != nil {
		d.DeviceType = *snap.DeviceType
	}
	if snap.OS != nil {
		d.OS = *snap.OS
	}
	if snap.Status != nil {
		d.Status = *snap.Status
	}
	if snap.MachineID != nil {
		d.MachineID = snap.MachineID
	}
	d.LastSeen = now
}

// applyUpdate is the manual-edit counterpart of applySnapshot; the IP address
// itself is optional here.
func applyUpdate(d *domain.Device, upd *domain.DeviceUpdate) {
	if upd.IPAddress != nil {
		d.IPAddress = *upd.IPAddress
	}
	if upd.Name != nil {
		d.Name = *upd.Name
	}
	if upd.MACAddress != nil {
		d.MACAddress = upd.MACAddress
	}
	if upd.DeviceType != nil {
		d.DeviceType = *upd.DeviceType
	}
	if upd.OS != nil {
		d.OS = *upd.OS
	}
	if upd.Status != nil {
		d.Status = *upd.Status
	}
	if upd.MachineID != nil {
		d.MachineID = upd.MachineID
	}
}

// mergeHardware folds incoming components into the stored hardware document.
// Each supplied component replaces the stored one wholesale; components the
// incoming document does not mention are kept, including keys this code has
// never seen. Returns nil when there is nothing to persist.
func mergeHardware(existing *domain.HardwareDetail, components domain.ComponentMap, notes *string) *domain.HardwareDetail {
	if existing == nil && components == nil && notes == nil {
		return nil
	}

	hw := existing
	if hw == nil {
		hw = &domain.HardwareDetail{}
	}
	if hw.Components == nil {
		hw.Components = domain.ComponentMap{}
	}
	for k, v := range components {
		hw.Components[k] = v
	}
	if notes != nil {
		hw.CustomNotes = *notes
	}
	return hw
}
