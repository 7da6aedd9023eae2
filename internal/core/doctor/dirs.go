package doctor

import (
	"context"
	"fmt"
	"os"
)

// Dir is a named directory todosync writes to.
type Dir struct {
	Label string
	Path  string
}

// DirsCheck verifies that the data, store, report, backup, and spool
// directories are usable. Missing directories are fixable.
type DirsCheck struct {
	dirs    []Dir
	autofix bool
}

// NewDirsCheck creates a new directories check. With autofix set, missing
// directories are created.
func NewDirsCheck(dirs []Dir, autofix bool) *DirsCheck {
	return &DirsCheck{dirs: dirs, autofix: autofix}
}

func (c *DirsCheck) Name() string {
	return "Directories"
}

func (c *DirsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	for _, dir := range c.dirs {
		if dir.Path == "" {
			continue
		}

		info, err := os.Stat(dir.Path)
		switch {
		case os.IsNotExist(err):
			result.Items = append(result.Items, c.missing(dir))
		case err != nil:
			result.Items = append(result.Items, CheckItem{
				Label:  dir.Label,
				Status: StatusFail,
				Detail: fmt.Sprintf("inaccessible: %v", err),
			})
		case !info.IsDir():
			result.Items = append(result.Items, CheckItem{
				Label:  dir.Label,
				Status: StatusFail,
				Detail: dir.Path + " is not a directory",
			})
		default:
			result.Items = append(result.Items, CheckItem{
				Label:  dir.Label,
				Status: StatusPass,
				Detail: dir.Path,
			})
		}
	}

	return result
}

func (c *DirsCheck) missing(dir Dir) CheckItem {
	if !c.autofix {
		return CheckItem{
			Label:   dir.Label,
			Status:  StatusWarn,
			Detail:  dir.Path + " does not exist",
			Fixable: true,
		}
	}

	if err := os.MkdirAll(dir.Path, 0o755); err != nil {
		return CheckItem{
			Label:  dir.Label,
			Status: StatusFail,
			Detail: fmt.Sprintf("create %s: %v", dir.Path, err),
		}
	}
	return CheckItem{
		Label:  dir.Label,
		Status: StatusPass,
		Detail: "created " + dir.Path,
	}
}
