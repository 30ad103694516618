package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rmachado/inventra/internal/domain"
)

// Store is the postgres-backed record store. One reporting cycle commits in
// a single transaction; the unique index on ip_address turns a lost
// concurrent-create race into domain.ErrConflict. MAC uniqueness is
// best-effort and kept by the resolver's lookup order, not a constraint.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const deviceColumns = `id, name, ip_address, mac_address, device_type, os, status, machine_id, last_seen, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*domain.Device, error) {
	d := &domain.Device{}
	err := row.Scan(
		&d.ID, &d.Name, &d.IPAddress, &d.MACAddress, &d.DeviceType,
		&d.OS, &d.Status, &d.MachineID, &d.LastSeen, &d.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan device: %w", err)
	}
	return d, nil
}

func (s *Store) GetDeviceByID(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	d, err := scanDevice(s.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if d.Hardware, err = s.getHardware(ctx, d.ID); err != nil {
		return nil, err
	}
	if d.History, err = s.GetHistory(ctx, d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) GetDeviceByIP(ctx context.Context, ip string) (*domain.Device, error) {
	d, err := scanDevice(s.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE ip_address = $1`, ip))
	if err != nil {
		return nil, err
	}
	if d.Hardware, err = s.getHardware(ctx, d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) GetDeviceByMAC(ctx context.Context, mac string) (*domain.Device, error) {
	// Duplicate MACs can legitimately exist (see IP-wins resolution); take
	// the most recently seen record.
	d, err := scanDevice(s.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE mac_address = $1 ORDER BY last_seen DESC LIMIT 1`, mac))
	if err != nil {
		return nil, err
	}
	if d.Hardware, err = s.getHardware(ctx, d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) getHardware(ctx context.Context, deviceID uuid.UUID) (*domain.HardwareDetail, error) {
	hw := &domain.HardwareDetail{}
	var componentsJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, device_id, components, custom_notes
		FROM hardware_details WHERE device_id = $1
	`, deviceID).Scan(&hw.ID, &hw.DeviceID, &componentsJSON, &hw.CustomNotes)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get hardware: %w", err)
	}
	if err := json.Unmarshal(componentsJSON, &hw.Components); err != nil {
		return nil, fmt.Errorf("unmarshal components: %w", err)
	}
	return hw, nil
}

func (s *Store) ListDevices(ctx context.Context, skip, limit int) ([]*domain.Device, int, error) {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM devices`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count devices: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+deviceColumns+` FROM devices
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	devices := []*domain.Device{}
	byID := map[uuid.UUID]*domain.Device{}
	var ids []uuid.UUID
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, 0, err
		}
		devices = append(devices, d)
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list devices: %w", err)
	}
	if len(ids) == 0 {
		return devices, total, nil
	}

	hwRows, err := s.pool.Query(ctx, `
		SELECT id, device_id, components, custom_notes
		FROM hardware_details WHERE device_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("list hardware: %w", err)
	}
	defer hwRows.Close()
	for hwRows.Next() {
		hw := &domain.HardwareDetail{}
		var componentsJSON []byte
		if err := hwRows.Scan(&hw.ID, &hw.DeviceID, &componentsJSON, &hw.CustomNotes); err != nil {
			return nil, 0, fmt.Errorf("scan hardware: %w", err)
		}
		if err := json.Unmarshal(componentsJSON, &hw.Components); err != nil {
			return nil, 0, fmt.Errorf("unmarshal components: %w", err)
		}
		if d, ok := byID[hw.DeviceID]; ok {
			d.Hardware = hw
		}
	}
	if err := hwRows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list hardware: %w", err)
	}

	return devices, total, nil
}

func (s *Store) GetHistory(ctx context.Context, deviceID uuid.UUID) ([]*domain.HistoryLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, device_id, timestamp, component, change_description, details_before, details_after, actor
		FROM history_logs WHERE device_id = $1
		ORDER BY timestamp DESC
	`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	logs := []*domain.HistoryLog{}
	for rows.Next() {
		h := &domain.HistoryLog{}
		if err := rows.Scan(&h.ID, &h.DeviceID, &h.Timestamp, &h.Component,
			&h.Description, &h.Before, &h.After, &h.Actor); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		logs = append(logs, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return logs, nil
}

func (s *Store) LatestSnapshot(ctx context.Context, deviceID uuid.UUID) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT data FROM snapshots
		WHERE device_id = $1
		ORDER BY recorded_at DESC LIMIT 1
	`, deviceID).Scan(&data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return data, nil
}

func (s *Store) CommitReport(ctx context.Context, commit *domain.ReportCommit) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	d := commit.Device
	if commit.Created {
		err = tx.QueryRow(ctx, `
			INSERT INTO devices (name, ip_address, mac_address, device_type, os, status, machine_id, last_seen)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at
		`, d.Name, d.IPAddress, d.MACAddress, d.DeviceType, d.OS, d.Status, d.MachineID, d.LastSeen).
			Scan(&d.ID, &d.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return fmt.Errorf("insert device: %w", err)
		}
	} else {
		tag, err := tx.Exec(ctx, `
			UPDATE devices
			SET name = $1, ip_address = $2, mac_address = $3, device_type = $4,
			    os = $5, status = $6, machine_id = $7, last_seen = $8
			WHERE id = $9
		`, d.Name, d.IPAddress, d.MACAddress, d.DeviceType, d.OS, d.Status, d.MachineID, d.LastSeen, d.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return fmt.Errorf("update device: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
	}

	if commit.Hardware != nil {
		if err := upsertHardware(ctx, tx, d.ID, commit.Hardware); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO snapshots (device_id, data) VALUES ($1, $2)`,
		d.ID, commit.Snapshot); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	for _, h := range commit.History {
		if _, err := tx.Exec(ctx, `
			INSERT INTO history_logs (device_id, timestamp, component, change_description, details_before, details_after, actor)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, d.ID, h.Timestamp, h.Component, h.Description, h.Before, h.After, h.Actor); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) UpdateDevice(ctx context.Context, device *domain.Device, hardware *domain.HardwareDetail) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE devices
		SET name = $1, ip_address = $2, mac_address = $3, device_type = $4,
		    os = $5, status = $6, machine_id = $7
		WHERE id = $8
	`, device.Name, device.IPAddress, device.MACAddress, device.DeviceType,
		device.OS, device.Status, device.MachineID, device.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("update device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if hardware != nil {
		if err := upsertHardware(ctx, tx, device.ID, hardware); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func upsertHardware(ctx context.Context, tx pgx.Tx, deviceID uuid.UUID, hw *domain.HardwareDetail) error {
	componentsJSON, err := json.Marshal(hw.Components)
	if err != nil {
		return fmt.Errorf("marshal components: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO hardware_details (device_id, components, custom_notes)
		VALUES ($1, $2, $3)
		ON CONFLICT (device_id) DO UPDATE
		SET components = EXCLUDED.components, custom_notes = EXCLUDED.custom_notes
	`, deviceID, componentsJSON, hw.CustomNotes)
	if err != nil {
		return fmt.Errorf("upsert hardware: %w", err)
	}
	return nil
}

func (s *Store) DeleteDevice(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
