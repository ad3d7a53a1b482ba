package automidireset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xela-labs/automidireset/host"
)

func TestEntryNilRecordWithoutLoadIsSafe(t *testing.T) {
	assert.False(t, Entry(nil))
	assert.False(t, Entry(nil))
}

func TestEntryRejectsVersionMismatch(t *testing.T) {
	rec := &host.Record{
		Version: host.CompatibleVersion + 1,
		GetFunc: func(name string) interface{} { return nil },
	}
	assert.False(t, Entry(rec))
}

func TestEntryRejectsMissingResolver(t *testing.T) {
	assert.False(t, Entry(&host.Record{Version: host.CompatibleVersion}))
}
