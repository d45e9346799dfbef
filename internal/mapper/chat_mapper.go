package mapper

import (
	"encoding/json"
	"time"

	"ai-landing-be/internal/entity"
	"ai-landing-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Chat Mappers

func (m *ChatMapper) ChatToEntity(c *model.Chat) *entity.Chat {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Chat{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ChatMapper) ChatToModel(c *entity.Chat) *model.Chat {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Chat{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

// Message Mappers

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

// Preview Mappers

func (m *ChatMapper) PreviewToEntity(p *model.Preview) *entity.Preview {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	var blocks []string
	if len(p.Blocks) > 0 {
		// Invalid JSON here means a corrupted row; treat as no blocks.
		_ = json.Unmarshal(p.Blocks, &blocks)
	}

	return &entity.Preview{
		Id:        p.Id,
		ChatId:    p.ChatId,
		Document:  p.Document,
		Blocks:    blocks,
		CreatedAt: p.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ChatMapper) PreviewToModel(p *entity.Preview) *model.Preview {
	if p == nil {
		return nil
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	var blocks datatypes.JSON
	if p.Blocks != nil {
		raw, _ := json.Marshal(p.Blocks)
		blocks = datatypes.JSON(raw)
	}

	return &model.Preview{
		Id:        p.Id,
		ChatId:    p.ChatId,
		Document:  p.Document,
		Blocks:    blocks,
		CreatedAt: p.CreatedAt,
		UpdatedAt: updatedAt,
	}
}
