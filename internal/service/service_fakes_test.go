package service

import (
	"context"

	"ai-landing-be/internal/entity"
	"ai-landing-be/internal/repository/contract"
	"ai-landing-be/internal/repository/specification"
	"ai-landing-be/internal/repository/unitofwork"
	"ai-landing-be/pkg/llm"

	"github.com/google/uuid"
)

// In-memory fakes for the unit-of-work surface. Queries return canned
// results; writes are recorded for assertion.

type fakeChatRepo struct {
	findOneResult *entity.Chat
	findOneErr    error
	findAllResult []*entity.Chat
	findAllSpecs  []specification.Specification

	created []*entity.Chat
	updated []*entity.Chat
	touched []uuid.UUID
	deleted []uuid.UUID
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	r.created = append(r.created, chat)
	return nil
}

func (r *fakeChatRepo) Update(ctx context.Context, chat *entity.Chat) error {
	r.updated = append(r.updated, chat)
	return nil
}

func (r *fakeChatRepo) Touch(ctx context.Context, id uuid.UUID) error {
	r.touched = append(r.touched, id)
	return nil
}

func (r *fakeChatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeChatRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error) {
	return r.findOneResult, r.findOneErr
}

func (r *fakeChatRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error) {
	r.findAllSpecs = specs
	return r.findAllResult, nil
}

func (r *fakeChatRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.findAllResult)), nil
}

type fakeMessageRepo struct {
	findAllResult []*entity.Message
	latestByChat  map[uuid.UUID]*entity.Message

	created       []*entity.Message
	createErr     error
	deletedChatId []uuid.UUID
	findOneSpecs  []specification.Specification
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, message)
	return nil
}

func (r *fakeMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	r.findOneSpecs = specs
	if len(r.findAllResult) == 0 {
		return nil, nil
	}
	return r.findAllResult[0], nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	return r.findAllResult, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.findAllResult)), nil
}

func (r *fakeMessageRepo) DeleteByChatId(ctx context.Context, chatId uuid.UUID) error {
	r.deletedChatId = append(r.deletedChatId, chatId)
	return nil
}

func (r *fakeMessageRepo) FindLatestByChatIds(ctx context.Context, chatIds []uuid.UUID) (map[uuid.UUID]*entity.Message, error) {
	if r.latestByChat == nil {
		return map[uuid.UUID]*entity.Message{}, nil
	}
	return r.latestByChat, nil
}

type fakePreviewRepo struct {
	findResult *entity.Preview

	upserted      []*entity.Preview
	deletedChatId []uuid.UUID
}

func (r *fakePreviewRepo) Upsert(ctx context.Context, preview *entity.Preview) error {
	r.upserted = append(r.upserted, preview)
	return nil
}

func (r *fakePreviewRepo) FindByChatId(ctx context.Context, chatId uuid.UUID) (*entity.Preview, error) {
	return r.findResult, nil
}

func (r *fakePreviewRepo) DeleteByChatId(ctx context.Context, chatId uuid.UUID) error {
	r.deletedChatId = append(r.deletedChatId, chatId)
	return nil
}

type fakeUserRepo struct {
	findOneResult   *entity.User
	resetToken      *entity.PasswordResetToken
	refreshProvider *entity.UserProvider

	created        []*entity.User
	updated        []*entity.User
	passwordSet    map[uuid.UUID]string
	tokensUsed     []uuid.UUID
	resetTokens    []*entity.PasswordResetToken
	refreshTokens  []*entity.UserRefreshToken
	revokedHashes  []string
	savedProviders []*entity.UserProvider
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.created = append(r.created, user)
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.updated = append(r.updated, user)
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	return r.findOneResult, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.created)), nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userId uuid.UUID, hash string) error {
	if r.passwordSet == nil {
		r.passwordSet = map[uuid.UUID]string{}
	}
	r.passwordSet[userId] = hash
	return nil
}

func (r *fakeUserRepo) UpdateAvatar(ctx context.Context, userId uuid.UUID, avatarURL string) error {
	return nil
}

func (r *fakeUserRepo) SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error {
	r.savedProviders = append(r.savedProviders, provider)
	return nil
}

func (r *fakeUserRepo) FindUserProvider(ctx context.Context, providerName, providerUserId string) (*entity.UserProvider, error) {
	return r.refreshProvider, nil
}

func (r *fakeUserRepo) CreatePasswordResetToken(ctx context.Context, token *entity.PasswordResetToken) error {
	r.resetTokens = append(r.resetTokens, token)
	return nil
}

func (r *fakeUserRepo) FindPasswordResetToken(ctx context.Context, specs ...specification.Specification) (*entity.PasswordResetToken, error) {
	return r.resetToken, nil
}

func (r *fakeUserRepo) MarkTokenUsed(ctx context.Context, id uuid.UUID) error {
	r.tokensUsed = append(r.tokensUsed, id)
	return nil
}

func (r *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	r.refreshTokens = append(r.refreshTokens, token)
	return nil
}

func (r *fakeUserRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	r.revokedHashes = append(r.revokedHashes, tokenHash)
	return nil
}

type fakeUow struct {
	users    *fakeUserRepo
	chats    *fakeChatRepo
	messages *fakeMessageRepo
	previews *fakePreviewRepo

	began      bool
	committed  bool
	rolledBack bool
}

func newFakeUow() *fakeUow {
	return &fakeUow{
		users:    &fakeUserRepo{},
		chats:    &fakeChatRepo{},
		messages: &fakeMessageRepo{},
		previews: &fakePreviewRepo{},
	}
}

func (u *fakeUow) Begin(ctx context.Context) error {
	u.began = true
	return nil
}

func (u *fakeUow) Commit() error {
	u.committed = true
	return nil
}

func (u *fakeUow) Rollback() error {
	if !u.committed {
		u.rolledBack = true
	}
	return nil
}

func (u *fakeUow) UserRepository() contract.UserRepository       { return u.users }
func (u *fakeUow) ChatRepository() contract.ChatRepository       { return u.chats }
func (u *fakeUow) MessageRepository() contract.MessageRepository { return u.messages }
func (u *fakeUow) PreviewRepository() contract.PreviewRepository { return u.previews }

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

// fakeProvider replays scripted chunks through the stream callback.
type fakeProvider struct {
	chunks    []string
	streamErr error

	history []llm.Message
	calls   int
}

func (p *fakeProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	p.history = history
	p.calls++
	full := ""
	for _, c := range p.chunks {
		full += c
	}
	return full, p.streamErr
}

func (p *fakeProvider) ChatStream(ctx context.Context, history []llm.Message, fn llm.StreamFunc, opts ...llm.Option) (string, error) {
	p.history = history
	p.calls++
	full := ""
	for _, c := range p.chunks {
		full += c
		if err := fn(c); err != nil {
			return full, err
		}
	}
	if p.streamErr != nil {
		return full, p.streamErr
	}
	return full, nil
}

type fakePublisherService struct {
	payloads [][]byte
}

func (p *fakePublisherService) Publish(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
