package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/collab-match-api/internal/constants"
	"github.com/yukikurage/collab-match-api/internal/database"
	"github.com/yukikurage/collab-match-api/internal/middleware"
	"github.com/yukikurage/collab-match-api/internal/models"
	"github.com/yukikurage/collab-match-api/internal/repository"
	"github.com/yukikurage/collab-match-api/internal/services"
	"github.com/yukikurage/collab-match-api/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db                  *gorm.DB
	store               *repository.GormStore
	tokens              *utils.TokenManager
	router              *gin.Engine
	authService         *services.AuthService
	notificationService *services.NotificationService
	handlers            Handlers
}

type envOptions struct {
	publisher *services.RedisPublisher
}

func setupTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), database.Options(gormlogger.Silent))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	require.NoError(t, database.Migrate(db))

	store := repository.NewStore(db)
	tokens := utils.NewTokenManager("test-secret", time.Hour)

	var publisher services.Publisher
	var subscriber NotificationSubscriber
	if opts.publisher != nil {
		publisher = opts.publisher
		subscriber = opts.publisher
	}

	authService := services.NewAuthService(store.Users())
	notificationService := services.NewNotificationService(store.Notifications(), publisher)
	matchService := services.NewMatchService(store, services.NewMatchPolicy(), notificationService, nil)

	h := Handlers{
		Auth:         NewAuthHandler(authService, tokens),
		Project:      NewProjectHandler(services.NewProjectService(store.Projects())),
		Match:        NewMatchHandler(matchService),
		Notification: NewNotificationHandler(notificationService, subscriber),
	}

	router := gin.New()
	router.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(router.Group("/api"), h, middleware.RequireAuth(tokens))

	return &testEnv{
		db:                  db,
		store:               store,
		tokens:              tokens,
		router:              router,
		authService:         authService,
		notificationService: notificationService,
		handlers:            h,
	}
}

func (env *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := env.authService.Signup(context.Background(), services.SignupInput{
		Username: username,
		Password: "supersecret",
	})
	require.NoError(t, err)
	return user
}

func (env *testEnv) createProject(t *testing.T, ownerID uint64, title string) *models.Project {
	t.Helper()
	project := &models.Project{Title: title, Description: "Test Description", OwnerID: ownerID}
	require.NoError(t, env.store.Projects().Create(context.Background(), project))
	return project
}

// request performs an API call as userID; userID 0 sends no credentials.
func (env *testEnv) request(t *testing.T, method, path string, body interface{}, userID uint64) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		token, _, err := env.tokens.IssueAccessToken(userID, "")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, w.Body.String())
}
