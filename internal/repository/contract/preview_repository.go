package contract

import (
	"context"

	"ai-landing-be/internal/entity"

	"github.com/google/uuid"
)

type PreviewRepository interface {
	// Upsert replaces a chat's preview document; one row per chat.
	Upsert(ctx context.Context, preview *entity.Preview) error
	FindByChatId(ctx context.Context, chatId uuid.UUID) (*entity.Preview, error)
	DeleteByChatId(ctx context.Context, chatId uuid.UUID) error
}
