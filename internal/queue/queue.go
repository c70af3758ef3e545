package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// Domain errors for the queue package.
var (
	// ErrEmpty is returned by Next when a device has no pending commands.
	ErrEmpty = errors.New("queue: empty")

	// ErrEntryNotFound is returned when removing an unknown entry.
	ErrEntryNotFound = errors.New("queue: entry not found")

	// ErrFull is returned when a device's pending commands would exceed
	// the configured per-device limit.
	ErrFull = errors.New("queue: device queue full")
)

// Entry is one queued command awaiting pickup by a polling device.
type Entry struct {
	ID         string         `json:"id"`
	Service    string         `json:"service"`
	Subservice string         `json:"subservice"`
	DeviceID   string         `json:"device_id"`
	Command    ngsi.Attribute `json:"command"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Queue is a SQLite-backed FIFO of pending commands per device.
type Queue struct {
	db *sql.DB

	// maxPerDevice caps pending commands per device; 0 means unlimited.
	maxPerDevice int
}

// New creates a command queue over an open database connection.
func New(db *sql.DB, maxPerDevice int) *Queue {
	return &Queue{
		db:           db,
		maxPerDevice: maxPerDevice,
	}
}

// Add appends a command to a device's queue and returns the stored
// entry with its generated id.
func (q *Queue) Add(ctx context.Context, service, subservice, deviceID string, command ngsi.Attribute) (*Entry, error) {
	if q.maxPerDevice > 0 {
		pending, err := q.count(ctx, service, subservice, deviceID)
		if err != nil {
			return nil, err
		}
		if pending >= q.maxPerDevice {
			return nil, ErrFull
		}
	}

	payload, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("encoding command: %w", err)
	}

	entry := &Entry{
		ID:         uuid.NewString(),
		Service:    service,
		Subservice: subservice,
		DeviceID:   deviceID,
		Command:    command,
		CreatedAt:  time.Now().UTC(),
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO command_queue (id, service, subservice, device_id, command, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, service, subservice, deviceID, string(payload),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting queue entry: %w", err)
	}

	return entry, nil
}

// Next returns the oldest pending command for a device without removing
// it. Returns ErrEmpty when nothing is queued.
func (q *Queue) Next(ctx context.Context, service, subservice, deviceID string) (*Entry, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, service, subservice, device_id, command, created_at
		FROM command_queue
		WHERE device_id = ? AND service = ? AND subservice = ?
		ORDER BY created_at, rowid
		LIMIT 1`,
		deviceID, service, subservice,
	)

	entry, err := scanEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("querying next queue entry: %w", err)
	}
	return entry, nil
}

// List returns all pending commands for a device in FIFO order.
func (q *Queue) List(ctx context.Context, service, subservice, deviceID string) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, service, subservice, device_id, command, created_at
		FROM command_queue
		WHERE device_id = ? AND service = ? AND subservice = ?
		ORDER BY created_at, rowid`,
		deviceID, service, subservice,
	)
	if err != nil {
		return nil, fmt.Errorf("querying queue entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning queue entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating queue entries: %w", err)
	}
	return entries, nil
}

// Remove deletes a queue entry after the command has been delivered.
func (q *Queue) Remove(ctx context.Context, id string) error {
	result, err := q.db.ExecContext(ctx, `DELETE FROM command_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting queue entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// count returns the number of pending commands for a device.
func (q *Queue) count(ctx context.Context, service, subservice, deviceID string) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM command_queue
		WHERE device_id = ? AND service = ? AND subservice = ?`,
		deviceID, service, subservice,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting queue entries: %w", err)
	}
	return n, nil
}

// scanEntry scans one command_queue row through the given Scan function.
func scanEntry(scan func(dest ...any) error) (*Entry, error) {
	var (
		entry     Entry
		payload   string
		createdAt string
	)

	if err := scan(&entry.ID, &entry.Service, &entry.Subservice,
		&entry.DeviceID, &payload, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payload), &entry.Command); err != nil {
		return nil, fmt.Errorf("decoding command payload: %w", err)
	}

	entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt) //nolint:errcheck // Format is controlled
	return &entry, nil
}
