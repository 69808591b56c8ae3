package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/events"
	"ai-chat-be/pkg/genai"

	"github.com/google/uuid"
)

type IRelayService interface {
	SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
}

type relayService struct {
	uowFactory unitofwork.RepositoryFactory
	provider   genai.Provider
	publisher  IPublisherService
	log        logger.ILogger
}

func NewRelayService(
	uowFactory unitofwork.RepositoryFactory,
	provider genai.Provider,
	publisher IPublisherService,
	log logger.ILogger,
) IRelayService {
	return &relayService{
		uowFactory: uowFactory,
		provider:   provider,
		publisher:  publisher,
		log:        log,
	}
}

// SendChat relays one utterance: authorize, generate, persist the pair,
// answer. Provider failures persist nothing so the user can retry the same
// utterance without duplication.
func (rs *relayService) SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.InvalidInput("message content is required")
	}
	if req.ChatSessionId == uuid.Nil {
		return nil, apperror.InvalidInput("chat_session_id is required")
	}

	uow := rs.uowFactory.NewUnitOfWork(ctx)

	session, err := resolveOwnedSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return nil, err
	}

	outcome, err := rs.provider.Generate(ctx, content)
	if err != nil {
		return nil, mapProviderError(err)
	}

	replyText := outcome.Reply
	var replyMeta map[string]interface{}
	if outcome.Blocked {
		// A refusal is still a conversational turn and gets persisted.
		replyText = fmt.Sprintf("I can't answer that (%s).", outcome.BlockReason)
		replyMeta = map[string]interface{}{"block_reason": outcome.BlockReason}
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.StorageUnavailable(err)
	}
	defer uow.Rollback()

	existing, err := uow.ChatMessageRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
	)
	if err != nil {
		return nil, apperror.StorageUnavailable(err)
	}
	firstExchange := existing == 0

	now := time.Now()
	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleUser,
		Content:       content,
		CreatedAt:     now,
	}
	replyMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       replyText,
		Meta:          replyMeta,
		// Nudged past the user message so created_at ordering keeps the
		// pair in conversation order.
		CreatedAt: now.Add(time.Millisecond),
	}

	if err := uow.ChatMessageRepository().CreateBulk(ctx, []*entity.ChatMessage{userMessage, replyMessage}); err != nil {
		return nil, apperror.StorageUnavailable(err)
	}

	if firstExchange {
		session.Title = deriveTitle(content)
	}
	session.UpdatedAt = now
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, apperror.StorageUnavailable(err)
	}

	// A failed commit means the exchange did not happen, even though the
	// provider already answered. The computed reply is dropped on purpose.
	if err := uow.Commit(); err != nil {
		return nil, apperror.StorageUnavailable(err)
	}

	rs.publishRecorded(ctx, userId, session.Id, userMessage.Id, replyMessage.Id, outcome.Blocked)

	return &dto.SendChatResponse{
		ChatSessionId:    session.Id,
		ChatSessionTitle: session.Title,
		Sent: &dto.ChatMessageResponse{
			Id:        userMessage.Id,
			Role:      userMessage.Role,
			Content:   userMessage.Content,
			CreatedAt: userMessage.CreatedAt,
		},
		Reply: &dto.ChatMessageResponse{
			Id:        replyMessage.Id,
			Role:      replyMessage.Role,
			Content:   replyMessage.Content,
			CreatedAt: replyMessage.CreatedAt,
		},
	}, nil
}

func (rs *relayService) publishRecorded(ctx context.Context, userId, sessionId, userMessageId, replyId uuid.UUID, blocked bool) {
	event := events.ChatExchangeRecorded{
		UserId:        userId,
		SessionId:     sessionId,
		UserMessageId: userMessageId,
		ReplyId:       replyId,
		Blocked:       blocked,
		OccurredAt:    time.Now(),
	}
	if err := rs.publisher.PublishExchangeRecorded(ctx, event); err != nil {
		// The exchange is already durable; eventing is best effort.
		rs.log.Warn("relay", "Failed to publish exchange event", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
}

func mapProviderError(err error) error {
	var upstream *genai.UpstreamError
	if errors.As(err, &upstream) {
		message := "the assistant is currently unavailable"
		if upstream.StatusCode != 0 {
			message = fmt.Sprintf("the assistant returned an error (status %d)", upstream.StatusCode)
		}
		return &apperror.AppError{
			Kind:    apperror.KindUpstream,
			Message: message,
			Hint:    upstream.Hint,
			Err:     upstream,
		}
	}

	var malformed *genai.MalformedResponseError
	if errors.As(err, &malformed) {
		return &apperror.AppError{
			Kind:    apperror.KindMalformedResponse,
			Message: "the assistant returned an unreadable response",
			Err:     malformed,
		}
	}

	return err
}

// deriveTitle builds the one-shot session title from the first utterance.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= constant.ChatSessionTitleMaxLen {
		return content
	}
	return string(runes[:constant.ChatSessionTitleMaxLen]) + "…"
}
