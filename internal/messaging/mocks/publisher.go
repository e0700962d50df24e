package mocks

import (
	"context"

	"pathways-server/internal/messaging"

	"github.com/stretchr/testify/mock"
)

// Mock NotificationPublisher
type NotificationPublisher struct {
	mock.Mock
}

func (m *NotificationPublisher) PublishNotification(ctx context.Context, n messaging.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *NotificationPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ messaging.NotificationPublisher = (*NotificationPublisher)(nil)
