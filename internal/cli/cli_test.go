package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTaskCommand_ParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		cmd     *RunTaskCommand
		args    []string
		wantErr string
	}{
		{"generic requires type", NewRunTaskCommand(), nil, "-type"},
		{"unknown type", NewRunTaskCommand(), []string{"-type", "enrich_book"}, "unknown task type"},
		{"generic with month", NewRunTaskCommand(), []string{"-type", "monthly_report", "-month", "2026-09"}, ""},
		{"bad month", NewTaskAliasCommand("send-monthly-report", "monthly_report"), []string{"-month", "Sept"}, "expected YYYY-MM"},
		{"alias", NewTaskAliasCommand("expire-loans", "expire_loans"), []string{"-db", "lib.db"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.ParseFlags(tt.args)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateLibrarianCommand_ParseFlags(t *testing.T) {
	cmd := NewCreateLibrarianCommand()
	err := cmd.ParseFlags([]string{"-username", "head"})
	assert.ErrorContains(t, err, "-email")

	cmd = NewCreateLibrarianCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-email", "head@iitm.in", "-username", "head", "-password", "secret-pass"}))
	assert.Equal(t, "head@iitm.in", cmd.Email)
}

func TestLoadConfig_DatabaseOverride(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")

	cfg, err := loadConfig("data/lib.db")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, len(cfg.Database.Path) > len("data/lib.db"))
}
