package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// Repository defines persistence for device records. The abstraction
// keeps the directory testable without a database.
type Repository interface {
	// GetByName retrieves a device by id within a service/subservice.
	// Returns ErrDeviceNotFound if no device matches.
	GetByName(ctx context.Context, id, service, subservice string) (*Device, error)

	// ListByType retrieves devices of an entity type within a
	// service/subservice, with the total count before paging.
	ListByType(ctx context.Context, entityType, service, subservice string, limit, offset int) (int, []Device, error)

	// Create inserts a new device.
	// Returns ErrDeviceExists on a duplicate (id, service, subservice).
	Create(ctx context.Context, d *Device) error

	// Delete removes a device.
	// Returns ErrDeviceNotFound if the device does not exist.
	Delete(ctx context.Context, id, service, subservice string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = `id, entity_type, service, subservice,
	lazy, active, static_attrs, commands, polling, created_at, updated_at`

// GetByName retrieves a device by id within a service/subservice.
func (r *SQLiteRepository) GetByName(ctx context.Context, id, service, subservice string) (*Device, error) {
	query := `SELECT ` + deviceColumns + `
		FROM devices
		WHERE id = ? AND service = ? AND subservice = ?`

	row := r.db.QueryRowContext(ctx, query, id, service, subservice)
	d, err := scanDevice(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by name: %w", err)
	}
	return d, nil
}

// ListByType retrieves devices of an entity type within a service and
// subservice, ordered by id.
func (r *SQLiteRepository) ListByType(ctx context.Context, entityType, service, subservice string, limit, offset int) (int, []Device, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM devices WHERE entity_type = ? AND service = ? AND subservice = ?`,
		entityType, service, subservice,
	).Scan(&count)
	if err != nil {
		return 0, nil, fmt.Errorf("counting devices by type: %w", err)
	}

	query := `SELECT ` + deviceColumns + `
		FROM devices
		WHERE entity_type = ? AND service = ? AND subservice = ?
		ORDER BY id
		LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, entityType, service, subservice, limit, offset)
	if err != nil {
		return 0, nil, fmt.Errorf("querying devices by type: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows.Scan)
		if err != nil {
			return 0, nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("iterating device rows: %w", err)
	}

	return count, devices, nil
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	lazy, active, static, commands, err := marshalAttributeSets(d.Lazy, d.Active, d.StaticAttributes, d.Commands)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO devices (id, entity_type, service, subservice,
			lazy, active, static_attrs, commands, polling, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.EntityType, d.Service, d.Subservice,
		lazy, active, static, commands, boolToInt(d.Polling), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

// Delete removes a device.
func (r *SQLiteRepository) Delete(ctx context.Context, id, service, subservice string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM devices WHERE id = ? AND service = ? AND subservice = ?`,
		id, service, subservice,
	)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// scanDevice scans one devices row through the given Scan function.
func scanDevice(scan func(dest ...any) error) (*Device, error) {
	var (
		d                          Device
		lazy, active, static, cmds string
		polling                    int
		createdAt, updatedAt       string
	)

	err := scan(&d.ID, &d.EntityType, &d.Service, &d.Subservice,
		&lazy, &active, &static, &cmds, &polling, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	for _, col := range []struct {
		raw    string
		target *[]ngsi.Attribute
	}{
		{lazy, &d.Lazy},
		{active, &d.Active},
		{static, &d.StaticAttributes},
		{cmds, &d.Commands},
	} {
		if err := unmarshalAttributeSet(col.raw, col.target); err != nil {
			return nil, err
		}
	}

	d.Polling = polling != 0
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled
	return &d, nil
}

// marshalAttributeSets encodes the four attribute sets as JSON columns.
func marshalAttributeSets(sets ...[]ngsi.Attribute) (string, string, string, string, error) {
	encoded := make([]string, len(sets))
	for i, set := range sets {
		if set == nil {
			set = []ngsi.Attribute{}
		}
		data, err := json.Marshal(set)
		if err != nil {
			return "", "", "", "", fmt.Errorf("encoding attribute set: %w", err)
		}
		encoded[i] = string(data)
	}
	return encoded[0], encoded[1], encoded[2], encoded[3], nil
}

// unmarshalAttributeSet decodes one JSON column into an attribute slice.
func unmarshalAttributeSet(raw string, target *[]ngsi.Attribute) error {
	if raw == "" || raw == "[]" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return fmt.Errorf("decoding attribute set: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation reports whether err is a SQLite unique or primary
// key constraint failure. String matching avoids leaking the driver's
// error types to callers.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
