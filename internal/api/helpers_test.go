package api

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"cvforge/internal/analytics"
	"cvforge/internal/api/middleware"
	"cvforge/internal/auth"
	"cvforge/internal/config"
	"cvforge/internal/database"
	"cvforge/internal/database/dbtest"
)

const testWebhookSecret = "hook-secret"

type fakeStorage struct {
	mu       sync.Mutex
	uploaded map[string][]byte
	deleted  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded[objectName] = b
	return &minio.UploadInfo{Key: objectName}, nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeStorage) GeneratePresignedURLWithParams(_ context.Context, objectKey string, _ time.Duration, params map[string]string) (string, error) {
	return "https://example.invalid/" + objectKey + "?disposition=" + params["response-content-disposition"], nil
}

func (s *fakeStorage) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, prefix)
	return nil
}

type fakeQueue struct {
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "task-" + task.Type(), Type: task.Type()}, nil
}

type fakeScanner struct {
	infected bool
}

func (s fakeScanner) Scan(r io.Reader) error {
	_, _ = io.Copy(io.Discard, r)
	if s.infected {
		return ErrInfected
	}
	return nil
}

type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.m[key]; ok {
		return v, nil
	}
	return nil, analytics.ErrCacheMiss
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func newTestAuthService(t *testing.T) *auth.AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	svc, err := auth.NewAuthService(privPEM, pubPEM, time.Hour, 24*time.Hour)
	require.NoError(t, err)
	return svc
}

// newUnreachableRedis 返回一个连不上的客户端，用来走“Redis 不可用”的降级路径。
func newUnreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:0",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
}

type testServer struct {
	t       *testing.T
	db      *gorm.DB
	router  *gin.Engine
	auth    *auth.AuthService
	storage *fakeStorage
	queue   *fakeQueue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authService := newTestAuthService(t)
	storage := newFakeStorage()
	queue := &fakeQueue{}

	cfg := &config.Config{}
	cfg.API.MaxDocuments = 3
	cfg.Auth.LoginRatePerHour = 10
	cfg.Auth.LoginLockThreshold = 5
	cfg.Auth.LoginLockTTL = time.Minute
	cfg.Payments.WebhookSecret = testWebhookSecret

	router := gin.New()
	router.Use(middleware.CorrelationIDMiddleware(), middleware.SlogLoggerMiddleware(logger))
	RegisterRoutes(router, Deps{
		Config:    cfg,
		DB:        db,
		Queue:     queue,
		Auth:      authService,
		Redis:     newUnreachableRedis(),
		Storage:   storage,
		Scanner:   fakeScanner{},
		Analytics: analytics.NewAggregator(db, &mapCache{m: map[string][]byte{}}, 6, time.Minute, logger),
		Logger:    logger,
	})

	return &testServer{t: t, db: db, router: router, auth: authService, storage: storage, queue: queue}
}

// createUser 写入一个用户并返回其访问令牌。
func (s *testServer) createUser(username, role string) (uint, string) {
	s.t.Helper()
	hash, err := auth.HashPassword("correct horse battery")
	require.NoError(s.t, err)
	user := database.User{Username: username, Email: username + "@example.com", PasswordHash: hash, Role: role}
	require.NoError(s.t, s.db.Create(&user).Error)

	pair, err := s.auth.GenerateTokenPair(auth.Subject{UserID: user.ID, Role: role})
	require.NoError(s.t, err)
	return user.ID, pair.AccessToken
}

func (s *testServer) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
