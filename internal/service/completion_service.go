package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-landing-be/internal/constant"
	"ai-landing-be/internal/dto"
	"ai-landing-be/internal/entity"
	"ai-landing-be/internal/pkg/logger"
	"ai-landing-be/internal/repository/specification"
	"ai-landing-be/internal/repository/unitofwork"

	"ai-landing-be/pkg/events"
	"ai-landing-be/pkg/llm"
	pktNats "ai-landing-be/pkg/nats"

	"github.com/google/uuid"
)

var ErrNoUserMessage = errors.New("request contains no user message")

type ICompletionService interface {
	// StartCompletion validates the request and, when a chat is attached,
	// persists the user turn. The returned stream performs the provider
	// call; nothing is written to the model before Run.
	StartCompletion(ctx context.Context, userId uuid.UUID, req *dto.CompletionRequest) (*CompletionStream, error)
}

type completionService struct {
	uowFactory       unitofwork.RepositoryFactory
	provider         llm.LLMProvider
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewCompletionService(
	uowFactory unitofwork.RepositoryFactory,
	provider llm.LLMProvider,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) ICompletionService {
	return &completionService{
		uowFactory:       uowFactory,
		provider:         provider,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

// CompletionStream carries one prepared completion through the provider
// call and the post-stream persistence.
type CompletionStream struct {
	svc     *completionService
	userId  uuid.UUID
	chatId  *uuid.UUID
	history []llm.Message
}

func (s *completionService) StartCompletion(ctx context.Context, userId uuid.UUID, req *dto.CompletionRequest) (*CompletionStream, error) {
	var lastUser *dto.CompletionMessage
	for i := range req.Messages {
		if req.Messages[i].Role == constant.ChatMessageRoleUser {
			lastUser = &req.Messages[i]
		}
	}
	if lastUser == nil {
		return nil, ErrNoUserMessage
	}

	if req.ChatId != nil {
		uow := s.uowFactory.NewUnitOfWork(ctx)

		chat, err := uow.ChatRepository().FindOne(ctx,
			specification.ByID{ID: *req.ChatId},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if chat == nil {
			return nil, ErrChatNotFound
		}

		// The user turn is written before the provider is ever contacted,
		// so a failed generation still leaves the prompt in history.
		userMessage := &entity.Message{
			Id:        uuid.New(),
			ChatId:    *req.ChatId,
			Role:      constant.ChatMessageRoleUser,
			Content:   lastUser.Content,
			CreatedAt: time.Now(),
		}
		if err := uow.MessageRepository().Create(ctx, userMessage); err != nil {
			return nil, fmt.Errorf("persist user message: %w", err)
		}
	}

	// The generator prompt is the only system turn the model sees. Any
	// client-supplied system messages are demoted to assistant turns.
	history := make([]llm.Message, 0, len(req.Messages)+1)
	history = append(history, llm.Message{
		Role:    constant.ChatMessageRoleSystem,
		Content: constant.GeneratorSystemPrompt,
	})
	for _, msg := range req.Messages {
		role := msg.Role
		if role != constant.ChatMessageRoleUser {
			role = constant.ChatMessageRoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: msg.Content})
	}

	return &CompletionStream{
		svc:     s,
		userId:  userId,
		chatId:  req.ChatId,
		history: history,
	}, nil
}

// Run streams the model response into w, flushing after every chunk so the
// browser renders tokens as they arrive. When the stream completes cleanly
// and a chat is attached, the full response is persisted and downstream
// consumers are notified. A stream that dies midway persists nothing.
func (cs *CompletionStream) Run(ctx context.Context, w *bufio.Writer) {
	s := cs.svc

	full, err := s.provider.ChatStream(ctx, cs.history, func(chunk string) error {
		if _, werr := w.WriteString(chunk); werr != nil {
			return werr
		}
		return w.Flush()
	})
	if err != nil {
		s.logger.Error("completion", "stream aborted, partial response discarded", map[string]interface{}{
			"error":   err.Error(),
			"user_id": cs.userId,
		})
		return
	}

	if cs.chatId == nil || full == "" {
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	assistantMessage := &entity.Message{
		Id:        uuid.New(),
		ChatId:    *cs.chatId,
		Role:      constant.ChatMessageRoleAssistant,
		Content:   full,
		CreatedAt: time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		s.logger.Error("completion", "failed to begin persistence transaction", map[string]interface{}{"error": err.Error()})
		return
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().Create(ctx, assistantMessage); err != nil {
		s.logger.Error("completion", "failed to persist assistant message", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := uow.ChatRepository().Touch(ctx, *cs.chatId); err != nil {
		s.logger.Error("completion", "failed to touch chat", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := uow.Commit(); err != nil {
		s.logger.Error("completion", "failed to commit assistant message", map[string]interface{}{"error": err.Error()})
		return
	}

	s.enqueuePreviewExtraction(ctx, *cs.chatId, assistantMessage.Id)

	if s.eventPublisher != nil {
		event := events.NewBaseEvent(constant.EventChatUpdated, map[string]interface{}{
			"user_id": cs.userId,
			"chat_id": *cs.chatId,
			"action":  "completed",
		})
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("completion", "failed to publish chat updated event", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (s *completionService) enqueuePreviewExtraction(ctx context.Context, chatId, messageId uuid.UUID) {
	payload := dto.PublishExtractPreviewMessage{
		ChatId:    chatId,
		MessageId: messageId,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("completion", "failed to marshal extraction job", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.publisherService.Publish(ctx, payloadJson); err != nil {
		s.logger.Error("completion", "failed to enqueue preview extraction", map[string]interface{}{"error": err.Error()})
	}
}
