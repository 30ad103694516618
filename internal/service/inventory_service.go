package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rmachado/inventra/internal/domain"
)

// InventoryService reconciles incoming snapshots into stored device records:
// it resolves which device a snapshot belongs to, merges its facts, detects
// changes against the previous snapshot, and commits the whole cycle as one
// transaction.
type InventoryService struct {
	store domain.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewInventoryService(store domain.Store, log *slog.Logger) *InventoryService {
	return &InventoryService{store: store, log: log, now: time.Now}
}

// Report processes one reporting cycle. The returned device carries the full
// representation (hardware detail and history) as persisted.
func (s *InventoryService) Report(ctx context.Context, snap *domain.Snapshot) (*domain.Device, error) {
	if err := snap.Normalize(); err != nil {
		return nil, err
	}

	device, err := s.resolve(ctx, snap)
	if err != nil {
		return nil, err
	}

	now := s.now()
	commit := &domain.ReportCommit{}
	if device == nil {
		commit.Created = true
		device = newDevice(snap, now)
		commit.Hardware = mergeHardware(nil, snap.Hardware, snap.CustomNotes)
	} else {
		applySnapshot(device, snap, now)
		commit.Hardware = mergeHardware(device.Hardware, snap.Hardware, snap.CustomNotes)
	}
	commit.Device = device

	doc := snap.Hardware
	if doc == nil {
		doc = domain.ComponentMap{}
	}
	snapJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	commit.Snapshot = snapJSON

	if !commit.Created {
		history, err := s.detect(ctx, device.ID, snapJSON, now)
		if err != nil {
			return nil, err
		}
		commit.History = history
	}

	if err := s.store.CommitReport(ctx, commit); err != nil {
		return nil, fmt.Errorf("commit report: %w", err)
	}

	if commit.Created {
		s.log.Info("device registered", "id", device.ID, "ip", device.IPAddress)
	} else if len(commit.History) > 0 {
		s.log.Info("device changes detected", "id", device.ID, "changes", len(commit.History))
	}

	return s.store.GetDeviceByID(ctx, device.ID)
}

// resolve finds the stored device an incoming snapshot belongs to. IP match
// wins; MAC is the fallback because DHCP reassigns IPs. When the IP matches
// one device and the MAC another, the IP match is taken and the MAC
// collision ignored. Absence of a match is not an error: it means create.
func (s *InventoryService) resolve(ctx context.Context, snap *domain.Snapshot) (*domain.Device, error) {
	device, err := s.store.GetDeviceByIP(ctx, snap.IPAddress)
	if err == nil {
		return device, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup by ip: %w", err)
	}

	if snap.MACAddress != nil {
		device, err = s.store.GetDeviceByMAC(ctx, *snap.MACAddress)
		if err == nil {
			return device, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("lookup by mac: %w", err)
		}
	}

	return nil, nil
}

// detect diffs the new snapshot against the device's previous one. A stored
// snapshot that no longer parses skips detection for this cycle with a
// warning; losing one diff is recoverable, losing a fresh snapshot is not.
func (s *InventoryService) detect(ctx context.Context, deviceID uuid.UUID, newJSON []byte, now time.Time) ([]*domain.HistoryLog, error) {
	prev, err := s.store.LatestSnapshot(ctx, deviceID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load previous snapshot: %w", err)
	}

	var oldDoc map[string]interface{}
	if err := json.Unmarshal(prev, &oldDoc); err != nil {
		s.log.Warn("skipping change detection",
			"device_id", deviceID,
			"err", fmt.Errorf("%w: %v", domain.ErrMalformedSnapshot, err))
		return nil, nil
	}

	var newDoc map[string]interface{}
	if err := json.Unmarshal(newJSON, &newDoc); err != nil {
		return nil, fmt.Errorf("decode new snapshot: %w", err)
	}

	return DetectChanges(deviceID, oldDoc, newDoc, now), nil
}

// Update applies a manual edit from the management API. Same merge semantics
// as reporting, but no snapshot is recorded and no history is produced.
func (s *InventoryService) Update(ctx context.Context, id uuid.UUID, upd *domain.DeviceUpdate) (*domain.Device, error) {
	device, err := s.store.GetDeviceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyUpdate(device, upd)

	var notes *string
	if upd.Hardware != nil {
		if raw, ok := upd.Hardware["custom_notes"]; ok {
			if v, ok := raw.(string); ok {
				notes = &v
			}
			delete(upd.Hardware, "custom_notes")
		}
	}
	hardware := mergeHardware(device.Hardware, upd.Hardware, notes)

	if err := s.store.UpdateDevice(ctx, device, hardware); err != nil {
		return nil, err
	}
	return s.store.GetDeviceByID(ctx, id)
}

func (s *InventoryService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	return s.store.GetDeviceByID(ctx, id)
}

func (s *InventoryService) List(ctx context.Context, skip, limit int) ([]*domain.Device, int, error) {
	return s.store.ListDevices(ctx, skip, limit)
}

func (s *InventoryService) History(ctx context.Context, id uuid.UUID) ([]*domain.HistoryLog, error) {
	if _, err := s.store.GetDeviceByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.GetHistory(ctx, id)
}

func (s *InventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteDevice(ctx, id)
}
