package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	// NewDB already migrated; a second pass must be a no-change no-op.
	require.NoError(t, db.Migrate())
}

func TestCameraSourceCRUD(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	cam := &CameraSource{Label: "desk webcam", DeviceIndex: 1, FPS: 30, Enabled: true}
	require.NoError(t, db.InsertCameraSource(cam))
	assert.NotEmpty(t, cam.ID, "id assigned on insert")

	require.NoError(t, db.InsertCameraSource(
		&CameraSource{Label: "auxiliary", DeviceIndex: 2}))

	cameras, err := db.ListCameraSources()
	require.NoError(t, err)
	require.Len(t, cameras, 2)
	assert.Equal(t, "auxiliary", cameras[0].Label, "ordered by label")
	assert.Equal(t, "desk webcam", cameras[1].Label)
	assert.True(t, cameras[1].Enabled)
	assert.Equal(t, 30, cameras[1].FPS)

	require.NoError(t, db.DeleteCameraSource(cam.ID))
	cameras, err = db.ListCameraSources()
	require.NoError(t, err)
	assert.Len(t, cameras, 1)

	err = db.DeleteCameraSource("no-such-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSendTargetCRUD(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	target := &SendTarget{Name: "vseeface", Protocol: "VMC", Host: "127.0.0.1", Port: 39539, SendRateHz: 30}
	require.NoError(t, db.InsertSendTarget(target))

	t.Run("rejects unknown protocol", func(t *testing.T) {
		err := db.InsertSendTarget(&SendTarget{Name: "x", Protocol: "MIDI", Host: "h", Port: 1})
		assert.Error(t, err)
	})

	t.Run("rejects duplicate endpoint", func(t *testing.T) {
		err := db.InsertSendTarget(
			&SendTarget{Name: "duplicate", Protocol: "VMC", Host: "127.0.0.1", Port: 39539})
		assert.Error(t, err)
	})

	targets, err := db.ListSendTargets()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "vseeface", targets[0].Name)

	require.NoError(t, db.DeleteSendTarget(target.ID))
	assert.Error(t, db.DeleteSendTarget(target.ID))
}

func TestAvatarModels(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	require.NoError(t, db.InsertAvatarModel(
		&AvatarModel{Name: "mika", Version: "1.2", Path: "/models/mika.vrm"}))
	require.NoError(t, db.InsertAvatarModel(
		&AvatarModel{Name: "alto", Path: "/models/alto.vrm"}))

	models, err := db.ListAvatarModels()
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "alto", models[0].Name)
	assert.Empty(t, models[0].Version)
	assert.Equal(t, "1.2", models[1].Version)
}

func TestChannelMapUpsert(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	m := &ChannelMap{Kind: "BLENDSHAPE", Name: "jawOpen", Source: "JawOpen", Enabled: true}
	require.NoError(t, db.UpsertChannelMap(m))
	assert.NotZero(t, m.ID)

	// Same (kind, name) replaces instead of duplicating.
	require.NoError(t, db.UpsertChannelMap(
		&ChannelMap{Kind: "BLENDSHAPE", Name: "jawOpen", Source: "MouthOpen", Enabled: false}))

	maps, err := db.ListChannelMaps()
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, "MouthOpen", maps[0].Source)
	assert.False(t, maps[0].Enabled)

	assert.Error(t, db.UpsertChannelMap(&ChannelMap{Kind: "SKELETON", Name: "x"}))
}

func TestRecordingsCatalogue(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	require.NoError(t, db.InsertRecording(
		&Recording{Path: "/data/session-1.jsonl", DurationSec: 12.5}))

	recordings, err := db.ListRecordings()
	require.NoError(t, err)
	require.Len(t, recordings, 1)
	assert.Equal(t, "/data/session-1.jsonl", recordings[0].Path)
	assert.Equal(t, 12.5, recordings[0].DurationSec)
	assert.False(t, recordings[0].CreatedAt.IsZero())
}
