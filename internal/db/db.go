// Package db persists the configuration entities the capture service
// manages between sessions: camera sources, send targets, avatar models,
// channel maps and the recording catalogue.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DB wraps the sqlite handle with entity accessors.
type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the database at path and applies pending
// migrations.
func NewDB(path string) (*DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db := &DB{handle}
	if err := db.Migrate(); err != nil {
		handle.Close()
		return nil, err
	}
	return db, nil
}

// CameraSource is a configured capture device.
type CameraSource struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	DeviceIndex int    `json:"device_index"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	FPS         int    `json:"fps,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// SendTarget is a configured motion stream destination.
type SendTarget struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Protocol   string `json:"protocol"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	SendRateHz int    `json:"send_rate_hz"`
}

// AvatarModel is a registered avatar the receiver can drive.
type AvatarModel struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Path    string `json:"path"`
}

// ChannelMap renames a locally computed channel to the name the
// receiving avatar expects.
type ChannelMap struct {
	ID      int64  `json:"id"`
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Source  string `json:"source"`
	Enabled bool   `json:"enabled"`
}

// Recording is a catalogue entry for a finished session log.
type Recording struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	DurationSec float64   `json:"duration_sec"`
	CreatedAt   time.Time `json:"created_at"`
}

// InsertCameraSource stores a camera, assigning an id when absent.
func (db *DB) InsertCameraSource(c *CameraSource) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := db.Exec(
		`INSERT INTO camera_sources (id, label, device_index, width, height, fps, enabled)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Label, c.DeviceIndex, c.Width, c.Height, c.FPS, c.Enabled,
	)
	if err != nil {
		return fmt.Errorf("failed to insert camera source: %w", err)
	}
	return nil
}

// ListCameraSources returns all cameras ordered by label.
func (db *DB) ListCameraSources() ([]CameraSource, error) {
	rows, err := db.Query(
		`SELECT id, label, device_index,
		        COALESCE(width, 0), COALESCE(height, 0), COALESCE(fps, 0), enabled
		 FROM camera_sources ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to list camera sources: %w", err)
	}
	defer rows.Close()

	var cameras []CameraSource
	for rows.Next() {
		var c CameraSource
		if err := rows.Scan(&c.ID, &c.Label, &c.DeviceIndex, &c.Width, &c.Height, &c.FPS, &c.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan camera source: %w", err)
		}
		cameras = append(cameras, c)
	}
	return cameras, rows.Err()
}

// DeleteCameraSource removes a camera by id.
func (db *DB) DeleteCameraSource(id string) error {
	res, err := db.Exec(`DELETE FROM camera_sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete camera source: %w", err)
	}
	return requireRowAffected(res, "camera source", id)
}

// InsertSendTarget stores a stream destination, assigning an id when
// absent.
func (db *DB) InsertSendTarget(t *SendTarget) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Protocol != "OSC" && t.Protocol != "VMC" {
		return fmt.Errorf("unsupported protocol %q", t.Protocol)
	}
	_, err := db.Exec(
		`INSERT INTO send_targets (id, name, protocol, host, port, send_rate_hz)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Protocol, t.Host, t.Port, t.SendRateHz,
	)
	if err != nil {
		return fmt.Errorf("failed to insert send target: %w", err)
	}
	return nil
}

// ListSendTargets returns all stream destinations ordered by name.
func (db *DB) ListSendTargets() ([]SendTarget, error) {
	rows, err := db.Query(
		`SELECT id, name, protocol, host, port, send_rate_hz FROM send_targets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list send targets: %w", err)
	}
	defer rows.Close()

	var targets []SendTarget
	for rows.Next() {
		var t SendTarget
		if err := rows.Scan(&t.ID, &t.Name, &t.Protocol, &t.Host, &t.Port, &t.SendRateHz); err != nil {
			return nil, fmt.Errorf("failed to scan send target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// DeleteSendTarget removes a destination by id.
func (db *DB) DeleteSendTarget(id string) error {
	res, err := db.Exec(`DELETE FROM send_targets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete send target: %w", err)
	}
	return requireRowAffected(res, "send target", id)
}

// InsertAvatarModel registers an avatar model.
func (db *DB) InsertAvatarModel(m *AvatarModel) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := db.Exec(
		`INSERT INTO avatar_models (id, name, version, path) VALUES (?, ?, ?, ?)`,
		m.ID, m.Name, m.Version, m.Path,
	)
	if err != nil {
		return fmt.Errorf("failed to insert avatar model: %w", err)
	}
	return nil
}

// ListAvatarModels returns all registered avatars ordered by name.
func (db *DB) ListAvatarModels() ([]AvatarModel, error) {
	rows, err := db.Query(
		`SELECT id, name, COALESCE(version, ''), path FROM avatar_models ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list avatar models: %w", err)
	}
	defer rows.Close()

	var models []AvatarModel
	for rows.Next() {
		var m AvatarModel
		if err := rows.Scan(&m.ID, &m.Name, &m.Version, &m.Path); err != nil {
			return nil, fmt.Errorf("failed to scan avatar model: %w", err)
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

// UpsertChannelMap stores or replaces a channel mapping, keyed by
// (kind, name).
func (db *DB) UpsertChannelMap(m *ChannelMap) error {
	if m.Kind != "BONE" && m.Kind != "BLENDSHAPE" {
		return fmt.Errorf("unsupported channel kind %q", m.Kind)
	}
	res, err := db.Exec(
		`INSERT INTO channel_maps (kind, name, source, enabled) VALUES (?, ?, ?, ?)
		 ON CONFLICT (kind, name) DO UPDATE SET source = excluded.source, enabled = excluded.enabled`,
		m.Kind, m.Name, m.Source, m.Enabled,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert channel map: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil && m.ID == 0 {
		m.ID = id
	}
	return nil
}

// ListChannelMaps returns all channel mappings.
func (db *DB) ListChannelMaps() ([]ChannelMap, error) {
	rows, err := db.Query(
		`SELECT id, kind, name, source, enabled FROM channel_maps ORDER BY kind, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel maps: %w", err)
	}
	defer rows.Close()

	var maps []ChannelMap
	for rows.Next() {
		var m ChannelMap
		if err := rows.Scan(&m.ID, &m.Kind, &m.Name, &m.Source, &m.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan channel map: %w", err)
		}
		maps = append(maps, m)
	}
	return maps, rows.Err()
}

// InsertRecording catalogues a finished session log.
func (db *DB) InsertRecording(r *Recording) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := db.Exec(
		`INSERT INTO recordings (id, path, duration_sec) VALUES (?, ?, ?)`,
		r.ID, r.Path, r.DurationSec,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recording: %w", err)
	}
	return nil
}

// ListRecordings returns the recording catalogue, newest first.
func (db *DB) ListRecordings() ([]Recording, error) {
	rows, err := db.Query(
		`SELECT id, path, duration_sec, created_at FROM recordings ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	defer rows.Close()

	var recordings []Recording
	for rows.Next() {
		var r Recording
		if err := rows.Scan(&r.ID, &r.Path, &r.DurationSec, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recording: %w", err)
		}
		recordings = append(recordings, r)
	}
	return recordings, rows.Err()
}

func requireRowAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s not found", entity, id)
	}
	return nil
}
