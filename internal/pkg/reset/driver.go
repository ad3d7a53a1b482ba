package reset

import (
	"fmt"

	"github.com/xela-labs/automidireset/host"
	"github.com/xela-labs/automidireset/internal/pkg/logger"
)

// ReinitDriver is the action the debouncer fires. It always calls the coarse
// reinit hook first, then walks the per-port deltas through the fine hook
// when the host has one.
type ReinitDriver struct {
	api    *host.API
	differ *PortDiffer // nil when per-port diffing is disabled
}

func NewReinitDriver(api *host.API, differ *PortDiffer) *ReinitDriver {
	return &ReinitDriver{
		api:    api,
		differ: differ,
	}
}

// Fire runs once per settled burst. Inputs are reported before outputs,
// the order within a direction is ascending index.
func (r *ReinitDriver) Fire() {
	log.Info("device change settled, reinitializing midi", logger.Info)
	r.api.MidiReinit()

	if r.differ == nil || r.api.MidiReinitPort == nil {
		return
	}

	for _, index := range r.differ.Refresh(Input) {
		log.Info(fmt.Sprintf("input port %d flipped", index), logger.Debug)
		r.api.MidiReinitPort(index, -1)
	}
	for _, index := range r.differ.Refresh(Output) {
		log.Info(fmt.Sprintf("output port %d flipped", index), logger.Debug)
		r.api.MidiReinitPort(-1, index)
	}
}
