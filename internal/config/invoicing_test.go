package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInvoicingConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoicing.toml")
	content := `
[numbering]
prefix = "LAW"

[terms]
schedule_lead_days = 14

[batch]
run_at = "07:30"
document_kind = "docx"

[issuer]
name = "Counsel Billing Ltd"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadInvoicingConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "LAW", cfg.Numbering.Prefix)
	assert.Equal(t, 14, cfg.Terms.ScheduleLeadDays)
	assert.Equal(t, 30, cfg.Terms.DefaultDueDays)
	assert.Equal(t, "docx", cfg.Batch.DocumentKind)
	assert.Equal(t, "UTC", cfg.Batch.Timezone)
	assert.Equal(t, "Counsel Billing Ltd", cfg.Issuer.Name)
	assert.NoError(t, cfg.Validate())

	hour, minute, err := cfg.RunAtClock()
	require.NoError(t, err)
	assert.Equal(t, uint(7), hour)
	assert.Equal(t, uint(30), minute)
}

func TestLoadInvoicingConfig_MissingFile(t *testing.T) {
	_, err := LoadInvoicingConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestInvoicingConfig_Validate(t *testing.T) {
	cfg := DefaultInvoicingConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Batch.RunAt = "6am"
	assert.ErrorContains(t, cfg.Validate(), "batch.run_at")

	cfg = DefaultInvoicingConfig()
	cfg.Batch.DocumentKind = "html"
	assert.ErrorContains(t, cfg.Validate(), "document_kind")

	cfg = DefaultInvoicingConfig()
	cfg.Numbering.Prefix = ""
	assert.Error(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "billing@example.com")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("INVOICING_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.SMTP.Configured())
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, "INV", cfg.Invoicing.Numbering.Prefix)
}
