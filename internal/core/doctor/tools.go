package doctor

import (
	"context"
	"os/exec"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// ToolsCheck verifies that the gh executable used for tracking issues is
// available.
type ToolsCheck struct {
	ghPath   string
	required bool
}

// NewToolsCheck creates a new tools check. When required is false a missing
// gh only disables issue creation and is reported as a warning.
func NewToolsCheck(ghPath string, required bool) *ToolsCheck {
	if ghPath == "" {
		ghPath = "gh"
	}
	return &ToolsCheck{ghPath: ghPath, required: required}
}

func (c *ToolsCheck) Name() string {
	return "Tools"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	path, err := lookPathFunc(c.ghPath)
	switch {
	case err == nil:
		result.Items = append(result.Items, CheckItem{
			Label:  "gh",
			Status: StatusPass,
			Detail: path,
		})
	case c.required:
		result.Items = append(result.Items, CheckItem{
			Label:  "gh",
			Status: StatusFail,
			Detail: "not found on PATH (issues.enabled is true)",
		})
	default:
		result.Items = append(result.Items, CheckItem{
			Label:  "gh",
			Status: StatusWarn,
			Detail: "not found on PATH; tracking issues are skipped",
		})
	}

	return result
}
