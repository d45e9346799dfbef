package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"ai-landing-be/internal/constant"
	"ai-landing-be/internal/dto"
	"ai-landing-be/internal/entity"
	"ai-landing-be/internal/repository/memory"
	"ai-landing-be/internal/repository/specification"
	"ai-landing-be/internal/repository/unitofwork"
	"ai-landing-be/pkg/preview"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IPreviewConsumerService interface {
	Consume(ctx context.Context) error
}

type previewConsumerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	uowFactory   unitofwork.RepositoryFactory
	previewCache *memory.PreviewCache
}

func NewPreviewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	previewCache *memory.PreviewCache,
) IPreviewConsumerService {
	return &previewConsumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		uowFactory:   uowFactory,
		previewCache: previewCache,
	}
}

func (cs *previewConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *previewConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishExtractPreviewMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal extraction job: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	// Only assistant turns can produce a document; a mis-addressed job
	// for a user turn is skipped below like any missing message.
	source, err := uow.MessageRepository().FindOne(ctx,
		specification.ByID{ID: payload.MessageId},
		specification.ByRole{Role: constant.ChatMessageRoleAssistant},
	)
	if err != nil {
		log.Printf("[ERROR] Failed to load message %s: %v", payload.MessageId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if source == nil {
		log.Printf("[WARN] Message %s gone before extraction, skipping", payload.MessageId)
		msg.Ack()
		return
	}

	ex := preview.Extract(source.Content)
	if ex.Empty() {
		// Conversational replies carry no code blocks; there is nothing
		// to preview and the previous document stays current.
		msg.Ack()
		return
	}

	document := preview.BuildDocument(ex)

	entry := &entity.Preview{
		Id:        uuid.New(),
		ChatId:    payload.ChatId,
		Document:  document,
		Blocks:    ex.Blocks(),
		CreatedAt: time.Now(),
	}

	if err := uow.PreviewRepository().Upsert(ctx, entry); err != nil {
		log.Printf("[ERROR] Failed to upsert preview for chat %s: %v", payload.ChatId, err)
		msg.Nack()
		return
	}

	cs.previewCache.Save(payload.ChatId, document)

	log.Printf("[INFO] Preview updated for chat %s (blocks: %v)", payload.ChatId, ex.Blocks())
	msg.Ack()
}
