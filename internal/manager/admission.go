package manager

import "context"

// acquireSlot waits for the single generation slot. Callers that have to
// wait are counted so /status can show queued work.
func (m *Manager) acquireSlot(ctx context.Context) (release func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case m.genCh <- struct{}{}:
		return m.releaseSlot, nil
	default:
	}

	n := m.waiting.Add(1)
	defer m.waiting.Add(-1)
	m.log.Debug().Int32("waiting", n).Msg("generation slot busy")
	select {
	case m.genCh <- struct{}{}:
		return m.releaseSlot, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) releaseSlot() { <-m.genCh }
