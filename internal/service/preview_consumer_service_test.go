package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-landing-be/internal/constant"
	"ai-landing-be/internal/dto"
	"ai-landing-be/internal/entity"
	"ai-landing-be/internal/repository/memory"
	"ai-landing-be/internal/repository/specification"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func publishExtractionJob(t *testing.T, pubSub *gochannel.GoChannel, chatId, messageId uuid.UUID) {
	t.Helper()
	payload, err := json.Marshal(dto.PublishExtractPreviewMessage{ChatId: chatId, MessageId: messageId})
	assert.NoError(t, err)
	msg := message.NewMessage(watermill.NewUUID(), payload)
	assert.NoError(t, pubSub.Publish(constant.ExtractPreviewTopic, msg))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPreviewConsumerExtractsAndUpserts(t *testing.T) {
	uow := newFakeUow()
	cache := memory.NewPreviewCache()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	chatId := uuid.New()
	messageId := uuid.New()
	uow.messages.findAllResult = []*entity.Message{{
		Id:      messageId,
		ChatId:  chatId,
		Role:    "assistant",
		Content: "Here it is.\n```html\n<h1>Hi</h1>\n```\n```css\nh1 { color: teal; }\n```",
	}}

	svc := NewPreviewConsumerService(pubSub, constant.ExtractPreviewTopic, &fakeFactory{uow: uow}, cache)
	assert.NoError(t, svc.Consume(context.Background()))

	publishExtractionJob(t, pubSub, chatId, messageId)

	waitFor(t, func() bool { return len(uow.previews.upserted) == 1 })

	saved := uow.previews.upserted[0]
	assert.Equal(t, chatId, saved.ChatId)
	assert.Contains(t, saved.Document, "<style>h1 { color: teal; }")
	assert.Contains(t, saved.Document, "<h1>Hi</h1>")
	assert.Equal(t, []string{"html", "css"}, saved.Blocks)

	doc, cached := cache.Get(chatId)
	assert.True(t, cached)
	assert.Equal(t, saved.Document, doc)

	// The message lookup is pinned to assistant turns.
	var roleFiltered bool
	for _, spec := range uow.messages.findOneSpecs {
		if s, ok := spec.(specification.ByRole); ok && s.Role == constant.ChatMessageRoleAssistant {
			roleFiltered = true
		}
	}
	assert.True(t, roleFiltered, "extraction should only read assistant messages")
}

func TestPreviewConsumerSkipsConversationalReply(t *testing.T) {
	uow := newFakeUow()
	cache := memory.NewPreviewCache()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	chatId := uuid.New()
	messageId := uuid.New()
	uow.messages.findAllResult = []*entity.Message{{
		Id:      messageId,
		ChatId:  chatId,
		Role:    "assistant",
		Content: "Sure, what kind of landing page do you have in mind?",
	}}

	svc := NewPreviewConsumerService(pubSub, constant.ExtractPreviewTopic, &fakeFactory{uow: uow}, cache)
	assert.NoError(t, svc.Consume(context.Background()))

	publishExtractionJob(t, pubSub, chatId, messageId)

	// Give the consumer time to drain the message, then verify it left no
	// preview behind.
	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, uow.previews.upserted)
	_, cached := cache.Get(chatId)
	assert.False(t, cached)
}
