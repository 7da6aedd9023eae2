package doctor

import (
	"context"
	"fmt"

	"github.com/hebbarp/todo-management/internal/core/todo"
)

// StorageCheck reads every channel partition, both ledgers, and the sync log
// through the configured backend.
type StorageCheck struct {
	backend todo.Backend
	ledgers []string
}

// NewStorageCheck creates a new storage check for the named ledger scopes.
func NewStorageCheck(backend todo.Backend, ledgers ...string) *StorageCheck {
	return &StorageCheck{backend: backend, ledgers: ledgers}
}

func (c *StorageCheck) Name() string {
	return "Storage"
}

func (c *StorageCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	for _, ch := range todo.Channels {
		items, err := c.backend.Store(ch).List(ctx)
		if err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  string(ch),
				Status: StatusFail,
				Detail: err.Error(),
			})
			continue
		}
		result.Items = append(result.Items, CheckItem{
			Label:  string(ch),
			Status: StatusPass,
			Detail: fmt.Sprintf("%d todos", len(items)),
		})
	}

	for _, scope := range c.ledgers {
		ids, err := c.backend.Ledger(scope).List(ctx)
		if err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  "ledger " + scope,
				Status: StatusFail,
				Detail: err.Error(),
			})
			continue
		}
		result.Items = append(result.Items, CheckItem{
			Label:  "ledger " + scope,
			Status: StatusPass,
			Detail: fmt.Sprintf("%d ids", len(ids)),
		})
	}

	log, err := c.backend.SyncLog().Load(ctx)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "sync log",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	item := CheckItem{Label: "sync log", Status: StatusPass, Detail: "never synced"}
	if latest, ok := log.Latest(); ok {
		item.Detail = fmt.Sprintf("last sync %s", latest.Timestamp.Format("2006-01-02 15:04"))
		if latest.Failed() {
			item.Status = StatusWarn
			item.Detail += fmt.Sprintf(" reported %d error(s)", len(latest.Errors))
		}
	}
	result.Items = append(result.Items, item)

	return result
}
