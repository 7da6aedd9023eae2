package doctor

import (
	"context"
	"strings"

	"github.com/hebbarp/todo-management/internal/core/config"
)

// ConfigCheck runs deep config validation and surfaces its warnings.
type ConfigCheck struct {
	cfg  *config.Config
	path string
}

// NewConfigCheck creates a new config check for the file at path.
func NewConfigCheck(cfg *config.Config, path string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, path: path}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if err := c.cfg.ValidateDeep(c.path); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				result.Items = append(result.Items, CheckItem{
					Label:  "config",
					Status: StatusFail,
					Detail: line,
				})
			}
		}
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "config",
			Status: StatusPass,
			Detail: c.path,
		})
	}

	for _, w := range c.cfg.Warnings() {
		label := w.Category
		if w.Item != "" {
			label += "." + w.Item
		}
		result.Items = append(result.Items, CheckItem{
			Label:  strings.ToLower(label),
			Status: StatusWarn,
			Detail: w.Message,
		})
	}

	return result
}
