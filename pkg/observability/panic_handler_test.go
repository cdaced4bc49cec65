package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogrus(InfoLevel, &buf)

	assert.NotPanics(t, func() {
		defer RecoverPanic(log, "worker")
		panic("boom")
	})

	assert.Contains(t, buf.String(), `"panic":"boom"`)
	assert.Contains(t, buf.String(), `"where":"worker"`)
}

func TestRecoverPanicNoPanic(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogrus(InfoLevel, &buf)

	func() {
		defer RecoverPanic(log, "worker")
	}()

	assert.Empty(t, buf.String())
}
