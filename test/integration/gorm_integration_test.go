package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.ChatMessageRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	ctx := context.Background()

	// Seed an owner outside the transaction so the FK holds.
	userId := uuid.New()
	hash := "not-a-real-hash"
	user := &entity.User{
		Id:           userId,
		Email:        "test-integration-" + uuid.New().String() + "@example.com",
		FullName:     "Integration Test User",
		PasswordHash: &hash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, uow.UserRepository().Create(ctx, user))

	t.Run("Check Transactional Exchange Append", func(t *testing.T) {
		sessionId := uuid.New()
		session := &entity.ChatSession{
			Id:        sessionId,
			UserId:    userId,
			Title:     constant.ChatSessionDefaultTitle,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		require.NoError(t, uow.ChatSessionRepository().Create(ctx, session))

		err := uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		now := time.Now()
		pair := []*entity.ChatMessage{
			{Id: uuid.New(), ChatSessionId: sessionId, Role: constant.ChatMessageRoleUser, Content: "ping", CreatedAt: now},
			{Id: uuid.New(), ChatSessionId: sessionId, Role: constant.ChatMessageRoleAssistant, Content: "pong", CreatedAt: now.Add(time.Millisecond)},
		}
		err = uow.ChatMessageRepository().CreateBulk(ctx, pair)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		count, err := uow.ChatMessageRepository().Count(ctx, specification.ByChatSessionID{ChatSessionID: sessionId})
		assert.NoError(t, err)
		assert.EqualValues(t, 2, count)

		t.Log("Successfully appended a message pair in a transaction")
	})

	t.Run("Check Hard Delete", func(t *testing.T) {
		sessionId := uuid.New()
		session := &entity.ChatSession{
			Id:        sessionId,
			UserId:    userId,
			Title:     "throwaway",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		require.NoError(t, uow.ChatSessionRepository().Create(ctx, session))

		rows, err := uow.ChatSessionRepository().Delete(ctx, sessionId)
		assert.NoError(t, err)
		assert.EqualValues(t, 1, rows)

		// The row is gone, not flagged.
		found, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
		assert.NoError(t, err)
		assert.Nil(t, found)
	})
}
