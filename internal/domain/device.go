package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusUnknown = "unknown"
)

// ComponentMap holds per-component hardware facts keyed by component name
// ("cpu_info", "ram_info", ...). Values are open documents or lists; unknown
// keys survive merges untouched.
type ComponentMap map[string]interface{}

// Hardware component keys reported by agents.
const (
	ComponentCPU         = "cpu_info"
	ComponentRAM         = "ram_info"
	ComponentDisk        = "disk_info"
	ComponentGPU         = "gpu_info"
	ComponentMotherboard = "motherboard_info"
	ComponentNetwork     = "network_info"
	ComponentTemperature = "temperature_info"
	ComponentPowerSupply = "power_supply_info"
	ComponentUSB         = "usb_devices"
	ComponentSoftware    = "installed_software"
)

type Device struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	IPAddress  string    `json:"ip_address"`
	MACAddress *string   `json:"mac_address"`
	DeviceType string    `json:"device_type"`
	OS         string    `json:"os"`
	Status     string    `json:"status"`
	MachineID  *string   `json:"machine_id"`
	LastSeen   time.Time `json:"last_seen"`
	CreatedAt  time.Time `json:"created_at"`

	Hardware *HardwareDetail `json:"hardware_details"`
	History  []*HistoryLog   `json:"history_logs"`
}

// HardwareDetail is the materialized per-device hardware document, one per
// device, merged in place on every report.
type HardwareDetail struct {
	ID          uuid.UUID    `json:"id"`
	DeviceID    uuid.UUID    `json:"device_id"`
	Components  ComponentMap `json:"components"`
	CustomNotes string       `json:"custom_notes"`
}

// HistoryLog is one detected change. Append-only; never updated or deleted
// during reconciliation.
type HistoryLog struct {
	ID          uuid.UUID `json:"id"`
	DeviceID    uuid.UUID `json:"device_id"`
	Timestamp   time.Time `json:"timestamp"`
	Component   string    `json:"component"`
	Description string    `json:"change_description"`
	Before      string    `json:"details_before"`
	After       string    `json:"details_after"`
	Actor       string    `json:"user"`
}

// ReportCommit carries everything one reporting cycle must persist
// atomically: the device upsert, its hardware document, the raw snapshot
// used for future diffs, and the history entries detected this cycle.
type ReportCommit struct {
	Device   *Device
	Created  bool
	Hardware *HardwareDetail
	Snapshot []byte
	History  []*HistoryLog
}

type Store interface {
	GetDeviceByID(ctx context.Context, id uuid.UUID) (*Device, error)
	GetDeviceByIP(ctx context.Context, ip string) (*Device, error)
	GetDeviceByMAC(ctx context.Context, mac string) (*Device, error)
	ListDevices(ctx context.Context, skip, limit int) ([]*Device, int, error)
	GetHistory(ctx context.Context, deviceID uuid.UUID) ([]*HistoryLog, error)

	// LatestSnapshot returns the most recent raw snapshot document recorded
	// for the device, or ErrNotFound when it has never reported one.
	LatestSnapshot(ctx context.Context, deviceID uuid.UUID) ([]byte, error)

	// CommitReport persists one reporting cycle in a single transaction.
	// A uniqueness violation on ip_address aborts the whole transaction and
	// is returned as ErrConflict.
	CommitReport(ctx context.Context, commit *ReportCommit) error

	// UpdateDevice persists a manual edit (device fields plus an optional
	// hardware upsert) transactionally, without recording a snapshot.
	UpdateDevice(ctx context.Context, device *Device, hardware *HardwareDetail) error

	// DeleteDevice removes the device and cascades its hardware detail,
	// history entries, and stored snapshots.
	DeleteDevice(ctx context.Context, id uuid.UUID) error
}
