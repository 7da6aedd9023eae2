package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	return &cfg
}

func boolPtr(b bool) *bool { return &b }

func TestValidateDeep_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	cfg.Digest.Template = "Pending: {{ .Pending }}"

	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_StructuralErrorFirst(t *testing.T) {
	cfg := validConfig(t)
	cfg.Storage.Backend = "nope"

	err := cfg.ValidateDeep("")
	require.Error(t, err)

	var fieldErrs criterio.FieldErrors
	assert.False(t, errors.As(err, &fieldErrs), "structural errors are plain errors")
}

func TestValidateDeep_DataDirIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	cfg.DataDir = file

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "data_dir", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Err.Error(), "not a directory")
}

func TestValidateDeep_ConfigPathIsDirectory(t *testing.T) {
	cfg := validConfig(t)

	err := cfg.ValidateDeep(t.TempDir())

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "config_file", fieldErrs[0].Field)
}

func TestValidateDeep_GhMissing(t *testing.T) {
	cfg := validConfig(t)
	cfg.Issues.Enabled = boolPtr(true)
	cfg.Issues.GhPath = "definitely-not-a-real-gh-binary"

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "issues.gh_path", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Err.Error(), "executable not found")
}

func TestValidateDeep_GhNotCheckedWhenAutoDetect(t *testing.T) {
	cfg := validConfig(t)
	cfg.Issues.GhPath = "definitely-not-a-real-gh-binary"

	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_SMTP(t *testing.T) {
	cfg := validConfig(t)
	cfg.Outbound.Backend = OutboundSMTP
	cfg.Outbound.SMTP.Port = 0
	cfg.Outbound.SMTP.PasswordEnv = "TODOSYNC_TEST_UNSET_PASSWORD_VAR"

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{
		"outbound.smtp.host",
		"outbound.smtp.from",
		"outbound.smtp.port",
		"outbound.smtp.password_env",
	}, fields)
}

func TestValidateDeep_DigestTemplate(t *testing.T) {
	cfg := validConfig(t)
	cfg.Digest.Template = "{{ .Pending"

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "digest.template", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Err.Error(), "template error")
}

func TestWarnings(t *testing.T) {
	cfg := validConfig(t)
	cfg.Issues.Enabled = boolPtr(true)

	warnings := cfg.Warnings()

	categories := make([]string, 0, len(warnings))
	for _, w := range warnings {
		categories = append(categories, w.Category)
	}
	assert.ElementsMatch(t, []string{"Digest", "Issues"}, categories)

	cfg.Digest.Recipient = "me@example.com"
	cfg.Issues.Repo = "acme/todos"
	assert.Empty(t, cfg.Warnings())
}
