package manager

import (
	"time"

	"nllbd/pkg/types"
)

// Status builds a status response for /status and the CLI.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp := types.StatusResponse{
		State:            string(m.state),
		ModelID:          m.modelID,
		Device:           string(m.device),
		StrictLanguages:  m.strict,
		InvocationsTotal: m.invocations,
		FailuresTotal:    m.failures,
		LastError:        m.lastErr,
		Waiting:          int(m.waiting.Load()),
		UptimeSeconds:    int64(time.Since(m.startTime).Seconds()),
		ServerTimeUnix:   time.Now().Unix(),
	}
	if m.langs != nil {
		resp.Languages = m.langs.Len()
	}
	return resp
}
