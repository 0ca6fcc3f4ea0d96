package services

import (
	"context"
	"fmt"
)

// Start launches the servers and the notifier in the background. The
// components run until Shutdown.
func (m *Manager) Start(ctx context.Context) error {
	if m.server == nil {
		return fmt.Errorf("manager not initialized")
	}
	ctx, m.cancel = context.WithCancel(ctx)

	if m.metricsServer != nil {
		if err := m.metricsServer.Start(); err != nil {
			return err
		}
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.server.Start(ctx); err != nil {
			m.logger.Error("Server failed", "error", err)
		}
	}()

	if m.notifier != nil {
		m.server.SetServing(NotifyHealthService, true)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := m.notifier.Start(ctx); err != nil {
				m.logger.Error("Notifier failed", "error", err)
			}
			// The notifier only returns once its streams are gone.
			m.server.SetServing(NotifyHealthService, false)
		}()
	}
	return nil
}
