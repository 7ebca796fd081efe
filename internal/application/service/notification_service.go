package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/application/dispatcher"
	"github.com/garyjia/classwallet-submitter/internal/application/port"
	"github.com/garyjia/classwallet-submitter/internal/domain/event"
	"github.com/garyjia/classwallet-submitter/internal/domain/workflow"
)

// NotificationService tells the operator how each attempt ended
type NotificationService struct {
	sender    port.MessageSender
	receiveID string
	logger    *zap.Logger
}

// NewNotificationService creates a NotificationService sending to receiveID
func NewNotificationService(sender port.MessageSender, receiveID string, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		sender:    sender,
		receiveID: receiveID,
		logger:    logger,
	}
}

// Register subscribes to the final submission events
func (s *NotificationService) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeSubmissionCompleted, "operator-notification", s.Handle)
	d.SubscribeNamed(event.TypeSubmissionFailed, "operator-notification", s.Handle)
}

// Handle sends the message for a final event. Other events are ignored.
func (s *NotificationService) Handle(ctx context.Context, evt *event.Event) error {
	if !evt.Type.IsFinal() {
		return nil
	}

	text := FormatNotification(evt)
	if err := s.sender.SendText(ctx, s.receiveID, text); err != nil {
		s.logger.Error("Failed to send operator notification",
			zap.String("attempt_id", evt.AttemptID),
			zap.Error(err))
		return fmt.Errorf("send notification: %w", err)
	}

	s.logger.Info("Operator notified",
		zap.String("attempt_id", evt.AttemptID),
		zap.String("event", evt.Type.String()))
	return nil
}

// FormatNotification renders the plain-text message for a final event
func FormatNotification(evt *event.Event) string {
	var b strings.Builder

	switch evt.Type {
	case event.TypeSubmissionCompleted:
		if evt.GetPayloadString("state") == string(workflow.StateStoppedForReview) {
			b.WriteString("ClassWallet form ready for review\n")
		} else {
			b.WriteString("ClassWallet submission sent\n")
		}
		fmt.Fprintf(&b, "Student: %s\n", evt.Student)
		fmt.Fprintf(&b, "Payee: %s\n", evt.GetPayloadString("payee"))
		fmt.Fprintf(&b, "Amount: $%s\n", evt.GetPayloadString("amount"))
		fmt.Fprintf(&b, "PO: %s", evt.GetPayloadString("po_number"))
	case event.TypeSubmissionFailed:
		b.WriteString("ClassWallet submission failed\n")
		fmt.Fprintf(&b, "Student: %s\n", evt.Student)
		fmt.Fprintf(&b, "Payee: %s\n", evt.GetPayloadString("payee"))
		fmt.Fprintf(&b, "Step: %s\n", evt.GetPayloadString("step"))
		b.WriteString(evt.GetPayloadString("message"))
	}

	fmt.Fprintf(&b, "\nAttempt: %s", evt.AttemptID)
	return b.String()
}
