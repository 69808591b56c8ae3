package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSessionService returns canned values; each field nil means "fail with
// the stored error".
type stubSessionService struct {
	history *dto.GetChatHistoryResponse
	shared  *dto.SharedSessionResponse
	err     error
}

func (s *stubSessionService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.SessionResponse{Id: uuid.New(), Title: req.Title}, nil
}

func (s *stubSessionService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*dto.GetAllSessionsResponse{}, nil
}

func (s *stubSessionService) GetHistory(ctx context.Context, userId, sessionId uuid.UUID) (*dto.GetChatHistoryResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.history, nil
}

func (s *stubSessionService) Delete(ctx context.Context, userId, sessionId uuid.UUID) error {
	return s.err
}

func (s *stubSessionService) IssueShareToken(ctx context.Context, userId, sessionId uuid.UUID) (*dto.IssueShareTokenResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.IssueShareTokenResponse{Token: "tok", ShareUrl: "https://x/share/tok"}, nil
}

func (s *stubSessionService) GetSharedSession(ctx context.Context, token string) (*dto.SharedSessionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.shared, nil
}

type stubRelayService struct {
	res *dto.SendChatResponse
	err error
}

func (s *stubRelayService) SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

func newTestApp(sessions *stubSessionService, relay *stubRelayService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewChatController(sessions, relay).RegisterRoutes(api)
	return app
}

func bearerFor(t *testing.T, userId uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return "Bearer " + signed
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newTestApp(&stubSessionService{}, &stubRelayService{})

	req := httptest.NewRequest("GET", "/api/chat/v1/sessions", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestShareRouteIsPublic(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newTestApp(&stubSessionService{
		shared: &dto.SharedSessionResponse{Title: "shared", Messages: []dto.ChatMessageResponse{}},
	}, &stubRelayService{})

	req := httptest.NewRequest("GET", "/api/chat/v1/share/some-token", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, true, envelope["success"])
}

func TestErrorKindsMapToStatusCodes(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	userId := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not found", err: apperror.NotFound("session not found"), wantStatus: 404},
		{name: "forbidden", err: apperror.Forbidden("session belongs to another user"), wantStatus: 403},
		{name: "invalid input", err: apperror.InvalidInput("bad"), wantStatus: 400},
		{name: "storage down", err: apperror.StorageUnavailable(assert.AnError), wantStatus: 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&stubSessionService{err: tt.err}, &stubRelayService{})

			req := httptest.NewRequest("GET", "/api/chat/v1/sessions/"+uuid.New().String(), nil)
			req.Header.Set("Authorization", bearerFor(t, userId))
			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			envelope := decodeEnvelope(t, resp)
			assert.Equal(t, false, envelope["success"])
		})
	}
}

func TestSendChatSurfacesUpstreamHint(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	userId := uuid.New()

	relayErr := &apperror.AppError{
		Kind:    apperror.KindUpstream,
		Message: "the assistant returned an error (status 429)",
		Hint:    "provider quota exhausted",
	}
	app := newTestApp(&stubSessionService{}, &stubRelayService{err: relayErr})

	payload, _ := json.Marshal(dto.SendChatRequest{ChatSessionId: uuid.New(), Content: "hi"})
	req := httptest.NewRequest("POST", "/api/chat/v1/send", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, userId))

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, "provider quota exhausted", envelope["hint"])
}

func TestSendChatValidatesBody(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newTestApp(&stubSessionService{}, &stubRelayService{})

	// Missing content fails struct validation before any service call.
	payload, _ := json.Marshal(map[string]interface{}{"chat_session_id": uuid.New().String()})
	req := httptest.NewRequest("POST", "/api/chat/v1/send", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, uuid.New()))

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
