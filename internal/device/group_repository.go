package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// GroupRepository defines persistence for configuration groups.
type GroupRepository interface {
	// FindForDevice returns the group whose scope matches the device:
	// exact entity-type match first, then the service/subservice group
	// with no entity type. Returns nil (not an error) when no group
	// matches; missing defaults just mean nothing to fill.
	FindForDevice(ctx context.Context, d *Device) (*ConfigGroup, error)

	// Create inserts a new configuration group.
	// Returns ErrGroupExists on a duplicate scope.
	Create(ctx context.Context, g *ConfigGroup) error

	// Delete removes a group by id.
	// Returns ErrGroupNotFound if the group does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLiteGroupRepository implements GroupRepository using SQLite.
type SQLiteGroupRepository struct {
	db *sql.DB
}

// NewSQLiteGroupRepository creates a SQLite-backed group repository.
func NewSQLiteGroupRepository(db *sql.DB) *SQLiteGroupRepository {
	return &SQLiteGroupRepository{db: db}
}

const groupColumns = `id, service, subservice, entity_type,
	lazy, active, static_attrs, commands, subscriptions, created_at`

// FindForDevice returns the best matching group for a device.
func (r *SQLiteGroupRepository) FindForDevice(ctx context.Context, d *Device) (*ConfigGroup, error) {
	// Exact type match wins over the typeless service default.
	query := `SELECT ` + groupColumns + `
		FROM config_groups
		WHERE service = ? AND subservice = ? AND entity_type IN (?, '')
		ORDER BY entity_type DESC
		LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, d.Service, d.Subservice, d.EntityType)
	g, err := scanGroup(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying group for device: %w", err)
	}
	return g, nil
}

// Create inserts a new configuration group.
func (r *SQLiteGroupRepository) Create(ctx context.Context, g *ConfigGroup) error {
	lazy, active, static, commands, err := marshalAttributeSets(g.Lazy, g.Active, g.StaticAttributes, g.Commands)
	if err != nil {
		return err
	}

	subs := g.Subscriptions
	if subs == nil {
		subs = []map[string]any{}
	}
	subsJSON, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("encoding subscriptions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO config_groups (id, service, subservice, entity_type,
			lazy, active, static_attrs, commands, subscriptions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Service, g.Subservice, g.EntityType,
		lazy, active, static, commands, string(subsJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrGroupExists
		}
		return fmt.Errorf("inserting group: %w", err)
	}
	return nil
}

// Delete removes a group by id.
func (r *SQLiteGroupRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM config_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// scanGroup scans one config_groups row through the given Scan function.
func scanGroup(scan func(dest ...any) error) (*ConfigGroup, error) {
	var (
		g                          ConfigGroup
		lazy, active, static, cmds string
		subs, createdAt            string
	)

	err := scan(&g.ID, &g.Service, &g.Subservice, &g.EntityType,
		&lazy, &active, &static, &cmds, &subs, &createdAt)
	if err != nil {
		return nil, err
	}

	for _, col := range []struct {
		raw    string
		target *[]ngsi.Attribute
	}{
		{lazy, &g.Lazy},
		{active, &g.Active},
		{static, &g.StaticAttributes},
		{cmds, &g.Commands},
	} {
		if err := unmarshalAttributeSet(col.raw, col.target); err != nil {
			return nil, err
		}
	}

	if subs != "" && subs != "[]" {
		if err := json.Unmarshal([]byte(subs), &g.Subscriptions); err != nil {
			return nil, fmt.Errorf("decoding subscriptions: %w", err)
		}
	}

	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	return &g, nil
}
