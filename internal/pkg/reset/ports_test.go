package reset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePorts struct {
	inputs   []string
	outputs  []string
	notReady bool
}

func (f *fakePorts) count(dir Direction) int {
	if f.notReady {
		return -1
	}
	if dir == Input {
		return len(f.inputs)
	}
	return len(f.outputs)
}

func (f *fakePorts) name(dir Direction, index int) string {
	if dir == Input {
		return f.inputs[index]
	}
	return f.outputs[index]
}

func TestFirstRefreshEstablishesBaseline(t *testing.T) {
	ports := &fakePorts{inputs: []string{"A", "B"}, outputs: []string{"X"}}
	differ := NewPortDiffer(ports.count, ports.name)

	// pre-existing attached ports never produce synthetic changes
	assert.Equal(t, 0, len(differ.Refresh(Input)))
	assert.True(t, differ.Ready())
	assert.Equal(t, 0, len(differ.Refresh(Input)))
	assert.Equal(t, 0, len(differ.Refresh(Output)))
}

func TestRefreshIdempotentOnUnchangedPorts(t *testing.T) {
	ports := &fakePorts{inputs: []string{"A", "B", "C"}}
	differ := NewPortDiffer(ports.count, ports.name)
	differ.EnsureBaseline()

	assert.Equal(t, 0, len(differ.Refresh(Input)))
	assert.Equal(t, 0, len(differ.Refresh(Input)))
}

func TestAttachReportedExactlyOnce(t *testing.T) {
	ports := &fakePorts{inputs: []string{"A", "B"}}
	differ := NewPortDiffer(ports.count, ports.name)
	differ.EnsureBaseline()

	ports.inputs = []string{"A", "B", "C"}
	assert.Equal(t, []int{2}, differ.Refresh(Input))
	assert.Equal(t, 0, len(differ.Refresh(Input)))
}

func TestDetachViaEmptyName(t *testing.T) {
	ports := &fakePorts{inputs: []string{"A", "B"}}
	differ := NewPortDiffer(ports.count, ports.name)
	differ.EnsureBaseline()

	// host keeps the ordinal, the name just resolves empty now
	ports.inputs = []string{"", "B"}
	assert.Equal(t, []int{0}, differ.Refresh(Input))
	assert.Equal(t, 0, len(differ.Refresh(Input)))
}

func TestDirectionsAreIndependent(t *testing.T) {
	ports := &fakePorts{inputs: []string{"A"}, outputs: []string{"X"}}
	differ := NewPortDiffer(ports.count, ports.name)
	differ.EnsureBaseline()

	ports.outputs = []string{""}
	assert.Equal(t, 0, len(differ.Refresh(Input)))
	assert.Equal(t, []int{0}, differ.Refresh(Output))
}

func TestShrunkCountTruncatesWithoutChanges(t *testing.T) {
	ports := &fakePorts{inputs: []string{"A", "B", "C"}}
	differ := NewPortDiffer(ports.count, ports.name)
	differ.EnsureBaseline()

	ports.inputs = []string{"A"}
	assert.Equal(t, 0, len(differ.Refresh(Input)))

	// the stale tail is gone, a port reappearing at index 1 is a change
	ports.inputs = []string{"A", "D"}
	assert.Equal(t, []int{1}, differ.Refresh(Input))
}

func TestBaselineWaitsForQueryableHost(t *testing.T) {
	ports := &fakePorts{notReady: true}
	differ := NewPortDiffer(ports.count, ports.name)

	differ.EnsureBaseline()
	assert.False(t, differ.Ready())

	ports.notReady = false
	ports.inputs = []string{"A"}
	differ.EnsureBaseline()
	assert.True(t, differ.Ready())
	assert.Equal(t, 0, len(differ.Refresh(Input)))
}
