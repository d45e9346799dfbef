package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-landing-be/internal/constant"
	"ai-landing-be/internal/dto"
	"ai-landing-be/internal/entity"
	"ai-landing-be/internal/repository/memory"
	"ai-landing-be/internal/repository/specification"
	"ai-landing-be/internal/repository/unitofwork"

	"ai-landing-be/pkg/events"
	pktNats "ai-landing-be/pkg/nats"

	"github.com/google/uuid"
)

var ErrChatNotFound = errors.New("chat not found")

type IChatService interface {
	CreateChat(ctx context.Context, userId uuid.UUID, req *dto.CreateChatRequest) (*dto.ChatResponse, error)
	GetAllChats(ctx context.Context, userId uuid.UUID) ([]*dto.ChatListItemResponse, error)
	GetChatHistory(ctx context.Context, userId, chatId uuid.UUID) ([]*dto.MessageResponse, error)
	RenameChat(ctx context.Context, userId, chatId uuid.UUID, req *dto.RenameChatRequest) (*dto.ChatResponse, error)
	DeleteChat(ctx context.Context, userId, chatId uuid.UUID) error
	GetPreview(ctx context.Context, userId, chatId uuid.UUID) (*dto.PreviewResponse, error)
}

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	previewCache   *memory.PreviewCache
	eventPublisher *pktNats.Publisher
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	previewCache *memory.PreviewCache,
	eventPublisher *pktNats.Publisher,
) IChatService {
	return &chatService{
		uowFactory:     uowFactory,
		previewCache:   previewCache,
		eventPublisher: eventPublisher,
	}
}

// findOwnedChat resolves a chat only when it belongs to the user. A chat
// owned by someone else is indistinguishable from a missing one.
func (s *chatService) findOwnedChat(ctx context.Context, uow unitofwork.UnitOfWork, userId, chatId uuid.UUID) (*entity.Chat, error) {
	chat, err := uow.ChatRepository().FindOne(ctx,
		specification.ByID{ID: chatId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	return chat, nil
}

func (s *chatService) publishChatUpdated(ctx context.Context, userId, chatId uuid.UUID, action string) {
	if s.eventPublisher == nil {
		return
	}
	event := events.NewBaseEvent(constant.EventChatUpdated, map[string]interface{}{
		"user_id": userId,
		"chat_id": chatId,
		"action":  action,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		fmt.Printf("[WARN] Failed to publish %s event: %v\n", constant.EventChatUpdated, err)
	}
}

func (s *chatService) CreateChat(ctx context.Context, userId uuid.UUID, req *dto.CreateChatRequest) (*dto.ChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	title := req.Title
	if title == "" {
		title = constant.DefaultChatTitle
	}

	chat := &entity.Chat{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now(),
	}

	if err := uow.ChatRepository().Create(ctx, chat); err != nil {
		return nil, err
	}

	s.publishChatUpdated(ctx, userId, chat.Id, "created")

	return &dto.ChatResponse{
		Id:        chat.Id,
		Title:     chat.Title,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}, nil
}

// GetAllChats lists the user's chats newest-activity first. Chats that have
// no messages yet are hidden so abandoned drafts never clutter the sidebar.
func (s *chatService) GetAllChats(ctx context.Context, userId uuid.UUID) ([]*dto.ChatListItemResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chats, err := uow.ChatRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.HasMessages{},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	chatIds := make([]uuid.UUID, 0, len(chats))
	for _, chat := range chats {
		chatIds = append(chatIds, chat.Id)
	}

	latest := make(map[uuid.UUID]*entity.Message)
	if len(chatIds) > 0 {
		latest, err = uow.MessageRepository().FindLatestByChatIds(ctx, chatIds)
		if err != nil {
			return nil, err
		}
	}

	res := make([]*dto.ChatListItemResponse, 0, len(chats))
	for _, chat := range chats {
		item := &dto.ChatListItemResponse{
			Id:        chat.Id,
			Title:     chat.Title,
			CreatedAt: chat.CreatedAt,
			UpdatedAt: chat.UpdatedAt,
		}
		if msg, ok := latest[chat.Id]; ok {
			item.LatestMessage = &dto.MessageResponse{
				Id:        msg.Id,
				Role:      msg.Role,
				Content:   msg.Content,
				CreatedAt: msg.CreatedAt,
			}
		}
		res = append(res, item)
	}

	return res, nil
}

func (s *chatService) GetChatHistory(ctx context.Context, userId, chatId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwnedChat(ctx, uow, userId, chatId); err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: chatId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		res = append(res, &dto.MessageResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}

	return res, nil
}

func (s *chatService) RenameChat(ctx context.Context, userId, chatId uuid.UUID, req *dto.RenameChatRequest) (*dto.ChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chat, err := s.findOwnedChat(ctx, uow, userId, chatId)
	if err != nil {
		return nil, err
	}

	chat.Title = req.Title
	if err := uow.ChatRepository().Update(ctx, chat); err != nil {
		return nil, err
	}

	s.publishChatUpdated(ctx, userId, chatId, "renamed")

	return &dto.ChatResponse{
		Id:        chat.Id,
		Title:     chat.Title,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}, nil
}

// DeleteChat removes the chat with its messages and preview in one
// transaction, then drops the cached preview document.
func (s *chatService) DeleteChat(ctx context.Context, userId, chatId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwnedChat(ctx, uow, userId, chatId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().DeleteByChatId(ctx, chatId); err != nil {
		return err
	}
	if err := uow.PreviewRepository().DeleteByChatId(ctx, chatId); err != nil {
		return err
	}
	if err := uow.ChatRepository().Delete(ctx, chatId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	s.previewCache.Delete(chatId)
	s.publishChatUpdated(ctx, userId, chatId, "deleted")

	return nil
}

func (s *chatService) GetPreview(ctx context.Context, userId, chatId uuid.UUID) (*dto.PreviewResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwnedChat(ctx, uow, userId, chatId); err != nil {
		return nil, err
	}

	// Fast path: the extractor keeps the latest document cached per chat.
	if document, ok := s.previewCache.Get(chatId); ok {
		return &dto.PreviewResponse{
			ChatId:    chatId,
			Document:  document,
			UpdatedAt: time.Now(),
		}, nil
	}

	preview, err := uow.PreviewRepository().FindByChatId(ctx, chatId)
	if err != nil {
		return nil, err
	}
	if preview == nil {
		return nil, ErrChatNotFound
	}

	s.previewCache.Save(chatId, preview.Document)

	updatedAt := preview.CreatedAt
	if preview.UpdatedAt != nil {
		updatedAt = *preview.UpdatedAt
	}

	return &dto.PreviewResponse{
		ChatId:    chatId,
		Document:  preview.Document,
		Blocks:    preview.Blocks,
		UpdatedAt: updatedAt,
	}, nil
}
