package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tafcue/internal/batch"
	"github.com/listenupapp/tafcue/internal/config"
	"github.com/listenupapp/tafcue/internal/di/providers"
	"github.com/listenupapp/tafcue/internal/metadata"
	"github.com/listenupapp/tafcue/internal/pipeline"
)

func testFlags(dir string) *config.Flags {
	flags := &config.Flags{EnvFile: filepath.Join(dir, "missing.env")}
	flags.Set("SOURCE_DIR", dir)
	flags.Set("OUTPUT_DIR", filepath.Join(dir, "out"))
	flags.Set("TRANSCODE_ENABLED", "false")
	flags.Set("SILENCE_ENABLED", "false")
	flags.Set("TONIES_JSON", filepath.Join(dir, "none.json"))
	return flags
}

func TestContainer_ResolvesBatchRunner(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	injector := NewContainer(testFlags(dir))
	defer injector.Shutdown() //nolint:errcheck // test cleanup

	runner, err := do.Invoke[*batch.Runner](injector)
	require.NoError(t, err)
	assert.NotNil(t, runner)

	db := do.MustInvoke[*metadata.DB](injector)
	assert.Zero(t, db.Len())

	enc := do.MustInvoke[*providers.EncoderHandle](injector)
	assert.Nil(t, enc.Encoder)

	cfg := do.MustInvoke[*config.Config](injector)
	assert.Equal(t, filepath.Join(dir, "out", ".cache"), cfg.Paths.CachePath)
	assert.DirExists(t, cfg.Paths.CachePath)
}

func TestContainer_RunsWhileCacheIsLocked(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	first := NewContainer(testFlags(dir))
	defer first.Shutdown() //nolint:errcheck // test cleanup

	_, err := do.Invoke[*batch.Runner](first)
	require.NoError(t, err)
	require.NotNil(t, do.MustInvoke[*providers.StoreHandle](first).Store)

	// The first container holds the badger directory lock.
	second := NewContainer(testFlags(dir))
	defer second.Shutdown() //nolint:errcheck // test cleanup

	runner, err := do.Invoke[*batch.Runner](second)
	require.NoError(t, err)
	assert.NotNil(t, runner)
	assert.Nil(t, do.MustInvoke[*providers.StoreHandle](second).Store)

	p := do.MustInvoke[*pipeline.Pipeline](second)
	previous, err := p.Previous(context.Background())
	require.NoError(t, err)
	assert.Empty(t, previous)
}
