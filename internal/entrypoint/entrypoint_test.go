package entrypoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshh/library-management-mad2/internal/config"
	"github.com/pranshh/library-management-mad2/internal/tasks"
)

func TestNewTaskQueue(t *testing.T) {
	t.Run("disabled queue runs jobs inline", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Tasks.Enabled = false

		queue, client, err := newTaskQueue(cfg, tasks.Deps{})

		require.NoError(t, err)
		assert.Nil(t, client)
		assert.IsType(t, &tasks.Runner{}, queue)
	})

	t.Run("enabled queue uses the persistent client", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Tasks.Enabled = true
		cfg.Tasks.DBPath = filepath.Join(t.TempDir(), "tasks.db")

		queue, client, err := newTaskQueue(cfg, tasks.Deps{})

		require.NoError(t, err)
		require.NotNil(t, client)
		t.Cleanup(func() { client.Close() })
		assert.Same(t, client, queue)
	})
}
