package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type ISessionService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.GetChatHistoryResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	IssueShareToken(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.IssueShareTokenResponse, error)
	GetSharedSession(ctx context.Context, token string) (*dto.SharedSessionResponse, error)
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	shareCache *memory.ShareCache
	clientURL  string
}

func NewSessionService(uowFactory unitofwork.RepositoryFactory, shareCache *memory.ShareCache, clientURL string) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
		shareCache: shareCache,
		clientURL:  clientURL,
	}
}

// resolveOwnedSession loads a session and enforces ownership. NotFound and
// Forbidden stay distinct kinds; callers propagate them unchanged.
func resolveOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, apperror.StorageUnavailable(err)
	}
	if session == nil {
		return nil, apperror.NotFound("session not found")
	}
	if session.UserId != userId {
		return nil, apperror.Forbidden("session belongs to another user")
	}
	return session, nil
}

// generateShareToken returns 256 bits of randomness, base64url encoded.
func generateShareToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *sessionService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = constant.ChatSessionDefaultTitle
	}

	now := time.Now()
	session := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, apperror.StorageUnavailable(err)
	}

	return &dto.SessionResponse{
		Id:        session.Id,
		Title:     session.Title,
		Shared:    false,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}, nil
}

func (s *sessionService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, apperror.StorageUnavailable(err)
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(sessions))
	for _, session := range sessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        session.Id,
			Title:     session.Title,
			Shared:    session.ShareToken != nil,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		})
	}

	return response, nil
}

func (s *sessionService) GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.GetChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := resolveOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, apperror.StorageUnavailable(err)
	}

	return &dto.GetChatHistoryResponse{
		Id:       session.Id,
		Title:    session.Title,
		Messages: toMessageResponses(messages),
	}, nil
}

func (s *sessionService) Delete(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := resolveOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return apperror.StorageUnavailable(err)
	}
	defer uow.Rollback()

	rows, err := uow.ChatSessionRepository().Delete(ctx, sessionId)
	if err != nil {
		return apperror.StorageUnavailable(err)
	}
	if rows == 0 {
		// Lost the race against a concurrent delete.
		return apperror.NotFound("session not found")
	}

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return apperror.StorageUnavailable(err)
	}

	if err := uow.Commit(); err != nil {
		return apperror.StorageUnavailable(err)
	}

	if session.ShareToken != nil {
		s.shareCache.Invalidate(*session.ShareToken)
	}

	return nil
}

func (s *sessionService) IssueShareToken(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.IssueShareTokenResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := resolveOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	token, err := generateShareToken()
	if err != nil {
		return nil, err
	}

	previous := session.ShareToken
	session.ShareToken = &token

	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, apperror.StorageUnavailable(err)
	}

	// The replaced token must stop resolving immediately.
	if previous != nil {
		s.shareCache.Invalidate(*previous)
	}
	s.shareCache.Save(token, session.Id)

	return &dto.IssueShareTokenResponse{
		Token:    token,
		ShareUrl: strings.TrimRight(s.clientURL, "/") + "/share/" + token,
	}, nil
}

func (s *sessionService) GetSharedSession(ctx context.Context, token string) (*dto.SharedSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	var session *entity.ChatSession

	// Cache maps token -> session id so the hot anonymous path fetches by
	// primary key. The token is re-checked against the row afterwards.
	if sessionId, found := s.shareCache.Get(token); found {
		loaded, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
		if err != nil {
			return nil, apperror.StorageUnavailable(err)
		}
		if loaded != nil && loaded.ShareToken != nil && *loaded.ShareToken == token {
			session = loaded
		}
	}

	if session == nil {
		loaded, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByShareToken{Token: token})
		if err != nil {
			return nil, apperror.StorageUnavailable(err)
		}
		if loaded == nil {
			return nil, apperror.NotFound("shared session not found")
		}
		session = loaded
		s.shareCache.Save(token, session.Id)
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, apperror.StorageUnavailable(err)
	}

	return &dto.SharedSessionResponse{
		Title:    session.Title,
		Messages: toMessageResponses(messages),
	}, nil
}

func toMessageResponses(messages []*entity.ChatMessage) []dto.ChatMessageResponse {
	response := make([]dto.ChatMessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, dto.ChatMessageResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}
	return response
}
