package services

import (
	"context"
)

// Shutdown stops accepting requests, waits for background work up to the
// deadline of ctx and then releases every connection.
func (m *Manager) Shutdown(ctx context.Context) {
	if m.server != nil {
		m.logger.Info("Stopping server...")
		if err := m.server.Stop(ctx); err != nil {
			m.logger.Warn("Error stopping server", "error", err)
		}
	}
	if m.metricsServer != nil {
		if err := m.metricsServer.Stop(ctx); err != nil {
			m.logger.Warn("Error stopping metrics server", "error", err)
		}
	}
	if m.cancel != nil {
		m.cancel()
	}

	m.logger.Info("Waiting for background tasks to finish...")
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Info("Background tasks finished")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for background tasks")
	}

	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			m.logger.Warn("Error closing publisher", "error", err)
		}
	}
	if m.closeCache != nil {
		if err := m.closeCache(); err != nil {
			m.logger.Warn("Error closing cache", "error", err)
		}
	}
	if m.provider != nil {
		if err := m.provider.Close(ctx); err != nil {
			m.logger.Warn("Error closing storage", "error", err)
		}
	}
	if m.tracingShutdown != nil {
		if err := m.tracingShutdown(ctx); err != nil {
			m.logger.Warn("Error shutting down tracing", "error", err)
		}
	}
}
