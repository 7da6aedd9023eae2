package config

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/hay-kot/criterio"

	"github.com/hebbarp/todo-management/pkg/tmpl"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// template syntax, executables, and file accessibility. The configPath argument
// specifies the config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateIssues(),
		c.validateOutbound(),
		c.validateDigest(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Digest.Recipient == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Digest",
			Item:     "recipient",
			Message:  "no digest recipient; `todosync digest` requires --to",
		})
	}

	if c.Issues.Enabled != nil && *c.Issues.Enabled && c.Issues.Repo == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Issues",
			Item:     "repo",
			Message:  "no repo set; gh will use the repository of the working directory",
		})
	}

	if c.Sync.IssueWindow > c.Sync.ReportWindow {
		warnings = append(warnings, ValidationWarning{
			Category: "Sync",
			Item:     "issue_window",
			Message:  "issue_window is larger than report_window",
		})
	}

	return warnings
}

// validateFileAccess checks config file, data directory, and spool directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		criterio.Run("inbound.spool_dir", c.Inbound.SpoolDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// validateIssues checks the gh executable when issue creation is forced on.
func (c *Config) validateIssues() error {
	if c.Issues.Enabled == nil || !*c.Issues.Enabled {
		return nil
	}
	return criterio.Run("issues.gh_path", c.Issues.GhPath, executableExists)
}

// validateOutbound checks SMTP settings when the smtp backend is selected.
func (c *Config) validateOutbound() error {
	if c.Outbound.Backend != OutboundSMTP {
		return nil
	}

	var errs criterio.FieldErrorsBuilder
	smtp := c.Outbound.SMTP

	if smtp.Host == "" {
		errs = errs.Append("outbound.smtp.host", fmt.Errorf("required for the smtp backend"))
	}
	if smtp.From == "" {
		errs = errs.Append("outbound.smtp.from", fmt.Errorf("required for the smtp backend"))
	}
	if smtp.Port < 1 || smtp.Port > 65535 {
		errs = errs.Append("outbound.smtp.port", fmt.Errorf("invalid port %d", smtp.Port))
	}
	if smtp.PasswordEnv != "" {
		if _, ok := os.LookupEnv(smtp.PasswordEnv); !ok {
			errs = errs.Append("outbound.smtp.password_env", fmt.Errorf("environment variable %s is not set", smtp.PasswordEnv))
		}
	}

	return errs.ToError()
}

// validateDigest checks the digest template override parses.
func (c *Config) validateDigest() error {
	if c.Digest.Template == "" {
		return nil
	}
	if err := tmpl.Validate(c.Digest.Template); err != nil {
		return criterio.NewFieldErrors("digest.template", fmt.Errorf("template error: %w", err))
	}
	return nil
}

// executableExists validates that path resolves to an executable.
func executableExists(path string) error {
	if path == "" {
		return nil
	}
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("executable not found: %s", path)
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
