package service

import (
	"context"
	"errors"
	"sort"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/contract"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/events"
	"ai-chat-be/pkg/genai"

	"github.com/google/uuid"
)

// fakeStore is the in-memory backing state shared by the fake repositories.
type fakeStore struct {
	users    map[uuid.UUID]*entity.User
	sessions map[uuid.UUID]*entity.ChatSession
	messages []*entity.ChatMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[uuid.UUID]*entity.User{},
		sessions: map[uuid.UUID]*entity.ChatSession{},
	}
}

func (s *fakeStore) clone() *fakeStore {
	out := newFakeStore()
	for id, u := range s.users {
		copied := *u
		out.users[id] = &copied
	}
	for id, sess := range s.sessions {
		copied := *sess
		out.sessions[id] = &copied
	}
	out.messages = append([]*entity.ChatMessage{}, s.messages...)
	return out
}

// fakeUow implements the unit of work over fakeStore. A transaction stages
// writes on a clone so a failed commit leaves the base state untouched.
type fakeUow struct {
	store *fakeStore
	tx    *fakeStore

	beginErr  error
	commitErr error
}

var _ unitofwork.UnitOfWork = &fakeUow{}

func (u *fakeUow) current() *fakeStore {
	if u.tx != nil {
		return u.tx
	}
	return u.store
}

func (u *fakeUow) Begin(ctx context.Context) error {
	if u.beginErr != nil {
		return u.beginErr
	}
	u.tx = u.store.clone()
	return nil
}

func (u *fakeUow) Commit() error {
	if u.commitErr != nil {
		u.tx = nil
		return u.commitErr
	}
	if u.tx != nil {
		*u.store = *u.tx
		u.tx = nil
	}
	return nil
}

func (u *fakeUow) Rollback() error {
	u.tx = nil
	return nil
}

func (u *fakeUow) UserRepository() contract.UserRepository {
	return &fakeUserRepo{uow: u}
}

func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return &fakeSessionRepo{uow: u}
}

func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &fakeMessageRepo{uow: u}
}

// fakeFactory hands out the same unit of work so tests can inspect and
// pre-seed state through it.
type fakeFactory struct {
	uow *fakeUow
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{uow: &fakeUow{store: newFakeStore()}}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

func (f *fakeFactory) seedSession(session *entity.ChatSession) {
	copied := *session
	f.uow.store.sessions[session.Id] = &copied
}

func (f *fakeFactory) seedUser(user *entity.User) {
	copied := *user
	f.uow.store.users[user.Id] = &copied
}

func (f *fakeFactory) messagesFor(sessionId uuid.UUID) []*entity.ChatMessage {
	var out []*entity.ChatMessage
	for _, m := range f.uow.store.messages {
		if m.ChatSessionId == sessionId {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (f *fakeFactory) session(id uuid.UUID) *entity.ChatSession {
	return f.uow.store.sessions[id]
}

// --- Repositories ---

type fakeUserRepo struct {
	uow *fakeUow
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	copied := *user
	r.uow.current().users[user.Id] = &copied
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	copied := *user
	r.uow.current().users[user.Id] = &copied
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, u := range r.uow.current().users {
		if userMatches(u, specs) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, u := range r.uow.current().users {
		if userMatches(u, specs) {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) IncrementMessageCount(ctx context.Context, userId uuid.UUID, delta int) error {
	u, ok := r.uow.current().users[userId]
	if !ok {
		return errors.New("user not found")
	}
	u.MessageCount += delta
	return nil
}

func userMatches(u *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if u.Id != s.ID {
				return false
			}
		case specification.ByEmail:
			if u.Email != s.Email {
				return false
			}
		}
	}
	return true
}

type fakeSessionRepo struct {
	uow *fakeUow
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.ChatSession) error {
	copied := *session
	r.uow.current().sessions[session.Id] = &copied
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.ChatSession) error {
	copied := *session
	r.uow.current().sessions[session.Id] = &copied
	return nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	store := r.uow.current()
	if _, ok := store.sessions[id]; !ok {
		return 0, nil
	}
	delete(store.sessions, id)
	return 1, nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	for _, sess := range r.uow.current().sessions {
		if sessionMatches(sess, specs) {
			copied := *sess
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var out []*entity.ChatSession
	for _, sess := range r.uow.current().sessions {
		if sessionMatches(sess, specs) {
			copied := *sess
			out = append(out, &copied)
		}
	}
	for _, spec := range specs {
		if order, ok := spec.(specification.OrderBy); ok && order.Field == "updated_at" {
			sort.Slice(out, func(i, j int) bool {
				if order.Desc {
					return out[i].UpdatedAt.After(out[j].UpdatedAt)
				}
				return out[i].UpdatedAt.Before(out[j].UpdatedAt)
			})
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, sess := range r.uow.current().sessions {
		if sessionMatches(sess, specs) {
			n++
		}
	}
	return n, nil
}

func sessionMatches(sess *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if sess.Id != s.ID {
				return false
			}
		case specification.UserOwnedBy:
			if sess.UserId != s.UserID {
				return false
			}
		case specification.ByShareToken:
			if sess.ShareToken == nil || *sess.ShareToken != s.Token {
				return false
			}
		}
	}
	return true
}

type fakeMessageRepo struct {
	uow *fakeUow
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	copied := *message
	store := r.uow.current()
	store.messages = append(store.messages, &copied)
	return nil
}

func (r *fakeMessageRepo) CreateBulk(ctx context.Context, messages []*entity.ChatMessage) error {
	for _, m := range messages {
		if err := r.Create(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var out []*entity.ChatMessage
	for _, m := range r.uow.current().messages {
		if messageMatches(m, specs) {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, m := range r.uow.current().messages {
		if messageMatches(m, specs) {
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	store := r.uow.current()
	var kept []*entity.ChatMessage
	for _, m := range store.messages {
		if m.ChatSessionId != sessionId {
			kept = append(kept, m)
		}
	}
	store.messages = kept
	return nil
}

func messageMatches(m *entity.ChatMessage, specs []specification.Specification) bool {
	for _, spec := range specs {
		if s, ok := spec.(specification.ByChatSessionID); ok {
			if m.ChatSessionId != s.ChatSessionID {
				return false
			}
		}
	}
	return true
}

// --- Provider / publisher / logger stand-ins ---

type fakeProvider struct {
	outcome *genai.Outcome
	err     error
	calls   int
}

func (p *fakeProvider) Generate(ctx context.Context, prompt string) (*genai.Outcome, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if p.outcome != nil {
		return p.outcome, nil
	}
	return &genai.Outcome{Reply: "re: " + prompt}, nil
}

type recordingPublisher struct {
	published []events.ChatExchangeRecorded
	err       error
}

func (p *recordingPublisher) PublishExchangeRecorded(ctx context.Context, event events.ChatExchangeRecorded) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
