package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/application/dispatcher"
	"github.com/garyjia/classwallet-submitter/internal/domain/event"
)

type mockMessageSender struct {
	sendTextFunc func(ctx context.Context, receiveID, text string) error
	sent         []string
}

func (m *mockMessageSender) SendText(ctx context.Context, receiveID, text string) error {
	m.sent = append(m.sent, text)
	if m.sendTextFunc != nil {
		return m.sendTextFunc(ctx, receiveID, text)
	}
	return nil
}

func TestNotificationService_Handle(t *testing.T) {
	sender := &mockMessageSender{}
	svc := NewNotificationService(sender, "ou_operator", zap.NewNop())

	completed := event.NewEvent(event.TypeSubmissionCompleted, "attempt-1", "Student Two", map[string]interface{}{
		"state":     "SUBMITTED",
		"payee":     "Hayden Acres LLC",
		"amount":    "200.85",
		"po_number": "20251030_1030",
	})
	require.NoError(t, svc.Handle(context.Background(), completed))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "submission sent")
	assert.Contains(t, sender.sent[0], "Payee: Hayden Acres LLC")
	assert.Contains(t, sender.sent[0], "Amount: $200.85")
	assert.Contains(t, sender.sent[0], "Attempt: attempt-1")

	failedEvt := event.NewEvent(event.TypeSubmissionFailed, "attempt-2", "Student One", map[string]interface{}{
		"step":    "select_expense_category",
		"message": "Could not select expense category 'Curriculum'.",
	})
	require.NoError(t, svc.Handle(context.Background(), failedEvt))
	assert.Contains(t, sender.sent[1], "failed")
	assert.Contains(t, sender.sent[1], "Step: select_expense_category")

	require.NoError(t, svc.Handle(context.Background(), event.NewEvent(event.TypeStepCompleted, "a", "s", nil)))
	assert.Len(t, sender.sent, 2, "non-final events are ignored")
}

func TestNotificationService_ReviewMessage(t *testing.T) {
	evt := event.NewEvent(event.TypeSubmissionCompleted, "attempt-3", "Student One", map[string]interface{}{
		"state": "STOPPED_FOR_REVIEW",
	})
	assert.Contains(t, FormatNotification(evt), "ready for review")
}

func TestNotificationService_SendError(t *testing.T) {
	sender := &mockMessageSender{sendTextFunc: func(context.Context, string, string) error {
		return errors.New("token expired")
	}}
	svc := NewNotificationService(sender, "ou_operator", zap.NewNop())

	err := svc.Handle(context.Background(), event.NewEvent(event.TypeSubmissionFailed, "a", "s", nil))
	assert.Error(t, err)
}

func TestNotificationService_Register(t *testing.T) {
	d := dispatcher.NewDispatcher(zap.NewNop())
	defer d.Close()

	NewNotificationService(&mockMessageSender{}, "ou_operator", zap.NewNop()).Register(d)

	assert.Len(t, d.ListHandlers(event.TypeSubmissionCompleted), 1)
	assert.Len(t, d.ListHandlers(event.TypeSubmissionFailed), 1)
	assert.Empty(t, d.ListHandlers(event.TypeStepCompleted))
}
