package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	viper.Reset()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 300*time.Second, cfg.Scheduler.Interval)
	assert.Equal(t, "facture from:leroymerlin.fr has:attachment in:inbox", cfg.Gmail.Query)
	assert.Equal(t, "config/credentials.json", cfg.Gmail.CredentialsFile)
	assert.Equal(t, "secrets/token.json", cfg.Gmail.TokenFile)
	assert.Equal(t, "invoices", cfg.Storage.InvoicesDir)
	assert.Equal(t, "data/archiver.db", cfg.Database.Path)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_FromFile(t *testing.T) {
	viper.Reset()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scheduler:
  interval: 60s
gmail:
  archive_label_id: Label_42
drive:
  parent_folder_id: folder-1
server:
  enabled: false
logger:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Scheduler.Interval)
	assert.Equal(t, "Label_42", cfg.Gmail.ArchiveLabelID)
	assert.Equal(t, "folder-1", cfg.Drive.ParentFolderID)
	assert.False(t, cfg.Server.Enabled)
	assert.Equal(t, "debug", cfg.Logger.Level)
	// untouched keys keep their defaults
	assert.Equal(t, "invoices", cfg.Storage.InvoicesDir)
}

func TestLoad_EnvOverride(t *testing.T) {
	viper.Reset()
	t.Setenv("GMAIL_ARCHIVE_LABEL_ID", "Label_env")
	t.Setenv("DRIVE_PARENT_FOLDER_ID", "folder-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Label_env", cfg.Gmail.ArchiveLabelID)
	assert.Equal(t, "folder-env", cfg.Drive.ParentFolderID)
}

func TestLoad_RejectsInvalidInterval(t *testing.T) {
	viper.Reset()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler:\n  interval: 0s\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateScanMode(t *testing.T) {
	cfg := &Config{
		Gmail: GmailConfig{ArchiveLabelID: "Label_42"},
		Drive: DriveConfig{ParentFolderID: "folder-1"},
	}
	assert.NoError(t, cfg.ValidateScanMode())

	cfg.Gmail.ArchiveLabelID = ""
	assert.Error(t, cfg.ValidateScanMode())

	cfg.Gmail.ArchiveLabelID = "Label_42"
	cfg.Drive.ParentFolderID = ""
	assert.Error(t, cfg.ValidateScanMode())
}
