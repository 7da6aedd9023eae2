package printer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Headerf("Sync %s", "run-1")
	p.Successf("chat: %d pending", 2)
	p.Infof("email: unavailable")
	p.Warnf("issue tracker offline")
	p.Errorf("%d error(s)", 1)
	p.Printf("")

	assert.Equal(t, "Sync run-1\n✓ chat: 2 pending\n• email: unavailable\n! issue tracker offline\n✗ 1 error(s)\n\n", buf.String())
	assert.Equal(t, "x", p.Muted("x"))
}
