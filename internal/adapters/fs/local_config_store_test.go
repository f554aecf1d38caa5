package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
)

func TestLocalConfigStoreAdapter(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), ".treb-safe")
	store := NewLocalConfigStoreAdapter(dir)

	assert.False(t, store.Exists())
	assert.Equal(t, filepath.Join(dir, "config.json"), store.GetPath())

	local, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultLocalConfig(), local)

	require.NoError(t, store.Save(ctx, &config.LocalConfig{Network: "sepolia"}))
	assert.True(t, store.Exists())

	raw, err := os.ReadFile(store.GetPath())
	require.NoError(t, err)
	assert.JSONEq(t, `{"network":"sepolia"}`, string(raw))

	local, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sepolia", local.Network)

	require.NoError(t, os.WriteFile(store.GetPath(), []byte("{"), 0644))
	_, err = store.Load(ctx)
	assert.ErrorContains(t, err, "failed to parse config file")
}
