package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rmachado/inventra/internal/domain"
)

// mockStore is an in-memory domain.Store. CommitReport enforces the same
// ip/mac uniqueness the real store does, so conflict paths are testable.
type mockStore struct {
	mu        sync.RWMutex
	devices   map[uuid.UUID]*domain.Device
	hardware  map[uuid.UUID]*domain.HardwareDetail
	history   map[uuid.UUID][]*domain.HistoryLog
	snapshots map[uuid.UUID][][]byte

	failCommit error // forced CommitReport failure, for conflict tests
}

func newMockStore() *mockStore {
	return &mockStore{
		devices:   make(map[uuid.UUID]*domain.Device),
		hardware:  make(map[uuid.UUID]*domain.HardwareDetail),
		history:   make(map[uuid.UUID][]*domain.HistoryLog),
		snapshots: make(map[uuid.UUID][][]byte),
	}
}

func cloneDevice(d *domain.Device) *domain.Device {
	cp := *d
	cp.Hardware = nil
	cp.History = nil
	return &cp
}

func cloneHardware(hw *domain.HardwareDetail) *domain.HardwareDetail {
	if hw == nil {
		return nil
	}
	cp := *hw
	cp.Components = make(domain.ComponentMap, len(hw.Components))
	for k, v := range hw.Components {
		cp.Components[k] = v
	}
	return &cp
}

func (m *mockStore) GetDeviceByID(_ context.Context, id uuid.UUID) (*domain.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := cloneDevice(d)
	cp.Hardware = cloneHardware(m.hardware[id])
	cp.History = append([]*domain.HistoryLog(nil), m.history[id]...)
	return cp, nil
}

func (m *mockStore) GetDeviceByIP(_ context.Context, ip string) (*domain.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.devices {
		if d.IPAddress == ip {
			cp := cloneDevice(d)
			cp.Hardware = cloneHardware(m.hardware[d.ID])
			return cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetDeviceByMAC(_ context.Context, mac string) (*domain.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.devices {
		if d.MACAddress != nil && *d.MACAddress == mac {
			cp := cloneDevice(d)
			cp.Hardware = cloneHardware(m.hardware[d.ID])
			return cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListDevices(_ context.Context, skip, limit int) ([]*domain.Device, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Device
	for _, d := range m.devices {
		cp := cloneDevice(d)
		cp.Hardware = cloneHardware(m.hardware[d.ID])
		out = append(out, cp)
	}
	total := len(out)
	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *mockStore) GetHistory(_ context.Context, deviceID uuid.UUID) ([]*domain.HistoryLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.HistoryLog(nil), m.history[deviceID]...), nil
}

func (m *mockStore) LatestSnapshot(_ context.Context, deviceID uuid.UUID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snaps := m.snapshots[deviceID]
	if len(snaps) == 0 {
		return nil, domain.ErrNotFound
	}
	return snaps[len(snaps)-1], nil
}

// conflicts mirrors the real store's unique index: hard uniqueness on
// ip_address only. MAC uniqueness is best-effort, kept by the resolver's
// lookup-before-insert rather than a constraint.
func (m *mockStore) conflicts(d *domain.Device) bool {
	for _, other := range m.devices {
		if other.ID == d.ID {
			continue
		}
		if other.IPAddress == d.IPAddress {
			return true
		}
	}
	return false
}

func (m *mockStore) CommitReport(_ context.Context, commit *domain.ReportCommit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCommit != nil {
		return m.failCommit
	}

	d := commit.Device
	if commit.Created {
		d.ID = uuid.New()
	}
	if m.conflicts(d) {
		return domain.ErrConflict
	}

	m.devices[d.ID] = cloneDevice(d)
	if commit.Hardware != nil {
		hw := cloneHardware(commit.Hardware)
		hw.DeviceID = d.ID
		if hw.ID == uuid.Nil {
			hw.ID = uuid.New()
		}
		m.hardware[d.ID] = hw
	}
	m.snapshots[d.ID] = append(m.snapshots[d.ID], commit.Snapshot)
	for _, h := range commit.History {
		h.ID = uuid.New()
		h.DeviceID = d.ID
		m.history[d.ID] = append(m.history[d.ID], h)
	}
	return nil
}

func (m *mockStore) UpdateDevice(_ context.Context, device *domain.Device, hardware *domain.HardwareDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[device.ID]; !ok {
		return domain.ErrNotFound
	}
	if m.conflicts(device) {
		return domain.ErrConflict
	}
	m.devices[device.ID] = cloneDevice(device)
	if hardware != nil {
		hw := cloneHardware(hardware)
		hw.DeviceID = device.ID
		if hw.ID == uuid.Nil {
			hw.ID = uuid.New()
		}
		m.hardware[device.ID] = hw
	}
	return nil
}

func (m *mockStore) DeleteDevice(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.devices, id)
	delete(m.hardware, id)
	delete(m.history, id)
	delete(m.snapshots, id)
	return nil
}
