package manager

import (
	"context"

	"github.com/rs/zerolog"
)

// selectDevice returns cpu when forced or when the runtime has no usable
// accelerator; a failed probe counts as no accelerator.
func selectDevice(ctx context.Context, cpuOnly bool, rt Runtime, log zerolog.Logger) Device {
	if cpuOnly {
		return DeviceCPU
	}
	ok, err := rt.AcceleratorAvailable(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("accelerator probe failed; using cpu")
		return DeviceCPU
	}
	if !ok {
		return DeviceCPU
	}
	return DeviceCUDA
}

// postInferenceHook picks the hook run after each generation. On accelerators
// the default asks the runtime to release cached device memory.
func (m *Manager) postInferenceHook(override PostInferenceHook) PostInferenceHook {
	if override != nil {
		return override
	}
	cr, ok := m.runtime.(CacheReleaser)
	if !ok || !m.device.Accelerated() {
		return nil
	}
	return cr.EmptyCache
}
