package implementation

import (
	"context"
	"errors"

	"ai-landing-be/internal/entity"
	"ai-landing-be/internal/mapper"
	"ai-landing-be/internal/model"
	"ai-landing-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreviewRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewPreviewRepository(db *gorm.DB) contract.PreviewRepository {
	return &PreviewRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *PreviewRepositoryImpl) Upsert(ctx context.Context, preview *entity.Preview) error {
	m := r.mapper.PreviewToModel(preview)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "blocks", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*preview = *r.mapper.PreviewToEntity(m)
	return nil
}

func (r *PreviewRepositoryImpl) FindByChatId(ctx context.Context, chatId uuid.UUID) (*entity.Preview, error) {
	var m model.Preview
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PreviewToEntity(&m), nil
}

func (r *PreviewRepositoryImpl) DeleteByChatId(ctx context.Context, chatId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("chat_id = ?", chatId).Delete(&model.Preview{}).Error
}
