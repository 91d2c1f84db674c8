package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/residence-ops/residence-tickets/internal/config"
	"github.com/residence-ops/residence-tickets/internal/service"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type apiClient struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func (c *apiClient) do(method, path string, body any) (int, envelope) {
	c.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func newTestApplication(t *testing.T) (*Application, *apiClient) {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Name: "residence-tickets", Version: "test", RequestTimeoutSeconds: 5},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			SessionTTLHours: 1,
			BcryptCost:      bcrypt.MinCost,
			SessionPrefix:   "session:",
		},
		Cache: config.CacheConfig{UserCacheSize: 16, UserCacheTTLSeconds: 60},
	}
	a, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	ctx, cancel := context.WithCancel(context.Background())
	done := a.StartWorkers(ctx)
	t.Cleanup(func() {
		cancel()
		<-done
	})

	_, err = a.Services.Auth.RegisterUser(context.Background(), service.RegisterUserInput{
		FirstName: "Camille",
		LastName:  "Martin",
		Email:     "camille@residence.test",
		Password:  "motdepasse",
	})
	require.NoError(t, err)
	return a, &apiClient{t: t, app: a.HTTP()}
}

func (c *apiClient) login() {
	c.t.Helper()
	status, env := c.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    "camille@residence.test",
		"password": "motdepasse",
	})
	require.Equal(c.t, http.StatusOK, status)
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(env.Data, &auth))
	c.token = auth.Token
}

type ticketBody struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	AssignedTo  *string `json:"assignedTo"`
	Version     int64   `json:"version"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func TestTicketFlowOverHTTP(t *testing.T) {
	_, client := newTestApplication(t)
	client.login()

	status, env := client.do(http.MethodPost, "/tickets", map[string]string{
		"title":       "Fuite d'eau",
		"description": "Hall plafond",
	})
	require.Equal(t, http.StatusCreated, status)
	var created ticketBody
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "NEW", created.Status)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	status, env = client.do(http.MethodPatch, "/tickets/"+created.ID, map[string]string{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, status)
	var updated ticketBody
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "IN_PROGRESS", updated.Status)
	assert.Equal(t, "Fuite d'eau", updated.Title)

	status, _ = client.do(http.MethodPost, "/tickets/"+created.ID+"/comments", map[string]string{"content": "Plombier contacté"})
	require.Equal(t, http.StatusCreated, status)

	status, env = client.do(http.MethodGet, "/tickets/"+created.ID+"/comments", nil)
	require.Equal(t, http.StatusOK, status)
	var comments []struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "Plombier contacté", comments[0].Content)

	status, env = client.do(http.MethodGet, "/tickets?view=partitioned", nil)
	require.Equal(t, http.StatusOK, status)
	var partitioned struct {
		Active   []ticketBody `json:"active"`
		Archived []ticketBody `json:"archived"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &partitioned))
	assert.Len(t, partitioned.Active, 1)
	assert.Empty(t, partitioned.Archived)
}

func TestErrorsOverHTTP(t *testing.T) {
	_, client := newTestApplication(t)

	status, env := client.do(http.MethodGet, "/tickets", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	client.login()

	status, env = client.do(http.MethodPost, "/tickets", `{"title":" ","description":"ok","foo":"bar"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	fields, ok := env.Error.Details["fields"].([]any)
	require.True(t, ok)
	assert.Len(t, fields, 2)

	status, env = client.do(http.MethodGet, "/tickets/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_ID", env.Error.Code)

	status, env = client.do(http.MethodGet, "/tickets/6f1c1f7e-2b7e-4c55-9a7e-0d8f3c1a2b3c", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = client.do(http.MethodPost, "/tickets/6f1c1f7e-2b7e-4c55-9a7e-0d8f3c1a2b3c/comments", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, _ = client.do(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLogoutRevokesToken(t *testing.T) {
	_, client := newTestApplication(t)
	client.login()

	status, env := client.do(http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, status)
	var me struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "camille@residence.test", me.Email)

	status, _ = client.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = client.do(http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealthAndMetrics(t *testing.T) {
	_, client := newTestApplication(t)

	status, env := client.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, env.Error)

	client.login()
	status, _ = client.do(http.MethodPost, "/tickets", map[string]string{"title": "a", "description": "b"})
	require.Equal(t, http.StatusCreated, status)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := client.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `residence_tickets_domain_events_total{type="ticket_created"} 1`)
	assert.Contains(t, string(body), "residence_tickets_http_requests_total")
}

func TestBuildKeepsSessionsInMemoryWhenRedisUnreachable(t *testing.T) {
	cfg := &config.Config{
		App:   config.AppConfig{Name: "residence-tickets", Version: "test"},
		Redis: config.RedisConfig{Addr: "127.0.0.1:1", DialTimeoutSec: 1},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			SessionTTLHours: 1,
			BcryptCost:      bcrypt.MinCost,
			SessionPrefix:   "session:",
		},
	}
	a, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.Nil(t, a.redis)
	assert.NotContains(t, a.health, "redis")

	ctx := context.Background()
	_, err = a.Services.Auth.RegisterUser(ctx, service.RegisterUserInput{
		FirstName: "Camille",
		LastName:  "Martin",
		Email:     "camille@residence.test",
		Password:  "motdepasse",
	})
	require.NoError(t, err)
	result, err := a.Services.Auth.Login(ctx, "camille@residence.test", "motdepasse")
	require.NoError(t, err)
	identity, err := a.Services.Auth.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, "camille@residence.test", identity.Email)
}
