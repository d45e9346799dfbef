package service

import (
	"context"
	"fmt"

	"ai-landing-be/internal/constant"
	"ai-landing-be/internal/pkg/logger"
	internalWS "ai-landing-be/internal/websocket"
	"ai-landing-be/pkg/events"
	pktNats "ai-landing-be/pkg/nats"

	"github.com/google/uuid"
)

// ChatEventDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type ChatEventDelivery interface {
	Send(userID uuid.UUID, frame internalWS.Frame)
}

// NotifierService bridges the NATS event bus to connected browsers so
// sidebars refetch when a chat changes from any instance or tab.
type NotifierService struct {
	subscriber *pktNats.Subscriber
	delivery   ChatEventDelivery
	logger     logger.ILogger
}

func NewNotifierService(sub *pktNats.Subscriber, delivery ChatEventDelivery, log logger.ILogger) *NotifierService {
	return &NotifierService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotifierService) Start() {
	err := s.subscriber.Subscribe(constant.EventChatUpdated, "chat-notifier-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotifierService", "Failed to start chat event subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotifierService", fmt.Sprintf("Listening for %s events", constant.EventChatUpdated), nil)
}

func (s *NotifierService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	userIDStr, ok := payload["user_id"].(string)
	if !ok {
		s.logger.Warn("NotifierService", "Event missing user_id, dropping", map[string]interface{}{"type": event.EventType()})
		return nil
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		s.logger.Warn("NotifierService", "Event carries malformed user_id, dropping", map[string]interface{}{"user_id": userIDStr})
		return nil
	}

	if s.delivery != nil {
		s.delivery.Send(userID, internalWS.Frame{
			Type: "chat_updated",
			Data: payload,
		})
	}

	return nil
}
