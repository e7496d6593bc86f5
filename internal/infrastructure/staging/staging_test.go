package staging

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicedrop/internal/domain/recording"
)

func stagedFiles(t *testing.T, fs afero.Fs, dir string) int {
	t.Helper()
	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	return len(entries)
}

func TestArea_StageAndRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	area, err := New(fs, "/staging")
	require.NoError(t, err)

	payload := bytes.Repeat([]byte{0x1a, 0x45, 0xdf, 0xa3}, 256)
	art, err := area.Stage(bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)

	assert.Equal(t, int64(len(payload)), art.Size())
	assert.Equal(t, 1, stagedFiles(t, fs, "/staging"))

	got, err := art.Bytes()
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, art.Remove())
	require.NoError(t, art.Remove())
	assert.Equal(t, 0, stagedFiles(t, fs, "/staging"))
}

func TestArea_Stage_ExactlyAtLimit(t *testing.T) {
	fs := afero.NewMemMapFs()
	area, err := New(fs, "/staging")
	require.NoError(t, err)

	art, err := area.Stage(bytes.NewReader(make([]byte, 1024)), 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), art.Size())
	require.NoError(t, art.Remove())
}

func TestArea_Stage_OverLimitLeavesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	area, err := New(fs, "/staging")
	require.NoError(t, err)

	_, err = area.Stage(bytes.NewReader(make([]byte, 1025)), 1024)
	assert.ErrorIs(t, err, recording.ErrPayloadTooLarge)
	assert.Equal(t, 0, stagedFiles(t, fs, "/staging"))
}
