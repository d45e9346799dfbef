package contract

import (
	"context"

	"ai-landing-be/internal/entity"
	"ai-landing-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteByChatId(ctx context.Context, chatId uuid.UUID) error
	// FindLatestByChatIds returns each chat's most recent message, keyed by
	// chat id. Chats without messages are absent from the map.
	FindLatestByChatIds(ctx context.Context, chatIds []uuid.UUID) (map[uuid.UUID]*entity.Message, error)
}
