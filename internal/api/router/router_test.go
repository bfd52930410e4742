package router

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lmartins/obsidian-sync/internal/api/dto"
	"github.com/lmartins/obsidian-sync/internal/api/handler"
	"github.com/lmartins/obsidian-sync/internal/api/ws"
	"github.com/lmartins/obsidian-sync/internal/config"
	"github.com/lmartins/obsidian-sync/internal/domain"
	"github.com/lmartins/obsidian-sync/internal/orchestrator"
	"github.com/lmartins/obsidian-sync/internal/storage"
	"github.com/lmartins/obsidian-sync/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProcessor keeps handler tests independent of any model
type fakeProcessor struct{}

func (fakeProcessor) ProcessWithFallback(_ context.Context, text string, category domain.Category, _ *domain.AIPreferences) (*domain.NoteDraft, error) {
	return &domain.NoteDraft{
		Title:    "Note",
		Content:  "# Note\n\n" + text,
		Tags:     []string{"generated"},
		Category: category,
	}, nil
}

type testEnv struct {
	router  *gin.Engine
	jobs    *storage.MemoryJobStore
	configs *storage.MemoryConfigStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jobs := storage.NewMemoryJobStore()
	configs := storage.NewMemoryConfigStore()
	logger := testLogger()
	writer := vault.NewWriter(logger)

	// No scheduler attached: submitted jobs stay queued, which keeps
	// responses deterministic
	orch := orchestrator.New(&orchestrator.Config{
		Jobs:      jobs,
		Configs:   configs,
		Processor: fakeProcessor{},
		Writer:    writer,
		Logger:    logger,
	})

	deps := &handler.Dependencies{
		Logger:       logger,
		Orchestrator: orch,
		Jobs:         jobs,
		Configs:      configs,
		Writer:       writer,
		Hub:          ws.NewHub(logger),
		Limits: config.ProcessingConfig{
			MaxTextLength:  50000,
			MaxTags:        10,
			MaxTagLength:   50,
			MaxUploadBytes: 1024 * 1024,
		},
		AuthSecret: testSecret,
	}

	return &testEnv{router: SetupRouter(deps), jobs: jobs, configs: configs}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func bearerToken(userID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(userID))
	return userID + ":" + hex.EncodeToString(mac.Sum(nil))
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestSubmitText(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/processing/text", dto.SubmitTextRequest{
		Text:     "remember to water the plants",
		Category: "tasks",
		Priority: "high",
		Tags:     []string{"home"},
	}, "")

	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeJSON[dto.SubmitResponse](t, rec)
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.JobID, "job_"))
	assert.Equal(t, "queued", resp.Status)

	// The job is stored under the anonymous owner
	job, err := env.jobs.Get(context.Background(), resp.JobID, domain.AnonymousUserID)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryTasks, job.Category)
	assert.Equal(t, domain.PriorityHigh, job.Priority)
}

func TestSubmitText_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		request  dto.SubmitTextRequest
		wantCode int
		wantErr  string
	}{
		{
			name:     "empty text",
			request:  dto.SubmitTextRequest{Text: "   "},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "text must not be empty",
		},
		{
			name:     "oversized text",
			request:  dto.SubmitTextRequest{Text: strings.Repeat("a", 50001)},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "maximum length",
		},
		{
			name:     "unknown category",
			request:  dto.SubmitTextRequest{Text: "hello", Category: "journal"},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "unknown category",
		},
		{
			name:     "unknown priority",
			request:  dto.SubmitTextRequest{Text: "hello", Priority: "critical"},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "unknown priority",
		},
		{
			name: "too many tags",
			request: dto.SubmitTextRequest{
				Text: "hello",
				Tags: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"},
			},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "too many tags",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/processing/text", tt.request, "")

			assert.Equal(t, tt.wantCode, rec.Code)
			resp := decodeJSON[dto.ErrorResponse](t, rec)
			assert.Contains(t, resp.Error, tt.wantErr)
		})
	}
}

func TestSubmitText_SanitizesTags(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/processing/text", dto.SubmitTextRequest{
		Text: "hello",
		Tags: []string{"My Tag!", "UPPER", "ok_tag", "!!!"},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeJSON[dto.SubmitResponse](t, rec)
	job, err := env.jobs.Get(context.Background(), resp.JobID, domain.AnonymousUserID)
	require.NoError(t, err)

	assert.Equal(t, []string{"my-tag", "upper", "ok_tag"}, job.GetTags())
}

func TestSubmitText_DefaultsFromUserConfig(t *testing.T) {
	env := newTestEnv(t)
	token := bearerToken("user-1")

	cfg := domain.NewUserConfiguration("user-1")
	cfg.DefaultCategory = "ideas"
	cfg.SetDefaultTags([]string{"from-config"})
	require.NoError(t, env.configs.Upsert(context.Background(), cfg))

	rec := env.do(t, http.MethodPost, "/api/processing/text", dto.SubmitTextRequest{
		Text: "a thought",
		Tags: []string{"explicit"},
	}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeJSON[dto.SubmitResponse](t, rec)
	job, err := env.jobs.Get(context.Background(), resp.JobID, "user-1")
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryIdeas, job.Category)
	assert.Equal(t, []string{"explicit", "from-config"}, job.GetTags())
}

func TestGetStatus(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/processing/text", dto.SubmitTextRequest{Text: "hi"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	submitted := decodeJSON[dto.SubmitResponse](t, rec)

	t.Run("own job", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/processing/status/"+submitted.JobID, nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		job := decodeJSON[dto.JobDTO](t, rec)
		assert.Equal(t, submitted.JobID, job.JobID)
		assert.Equal(t, "queued", job.Status)
	})

	t.Run("unknown job", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/processing/status/job_20250101000000_deadbeefdeadbeef", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("someone else's job", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/processing/status/"+submitted.JobID, nil, bearerToken("other-user"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListJobs(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/api/processing/text", dto.SubmitTextRequest{Text: "note"}, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	t.Run("paged", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/processing/jobs?limit=2", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeJSON[dto.ListJobsResponse](t, rec)
		assert.Len(t, resp.Jobs, 2)
		assert.Equal(t, 3, resp.Total)
		assert.Equal(t, 2, resp.Limit)
	})

	t.Run("offset past the end", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/processing/jobs?offset=10", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeJSON[dto.ListJobsResponse](t, rec)
		assert.Empty(t, resp.Jobs)
		assert.Equal(t, 3, resp.Total)
	})

	t.Run("status filter", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/processing/jobs?status=queued", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeJSON[dto.ListJobsResponse](t, rec)
		assert.Len(t, resp.Jobs, 3)
	})

	t.Run("unknown status", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/processing/jobs?status=pending", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/processing/jobs?limit=abc", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("other users see nothing", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/processing/jobs", nil, bearerToken("other-user"))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeJSON[dto.ListJobsResponse](t, rec)
		assert.Empty(t, resp.Jobs)
		assert.Equal(t, 0, resp.Total)
	})
}

func TestCancelJob(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/processing/text", dto.SubmitTextRequest{Text: "hi"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	submitted := decodeJSON[dto.SubmitResponse](t, rec)

	rec = env.do(t, http.MethodDelete, "/api/processing/jobs/"+submitted.JobID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[dto.ActionResponse](t, rec)
	assert.Equal(t, "cancelled", resp.Status)

	// Cancelling again is rejected
	rec = env.do(t, http.MethodDelete, "/api/processing/jobs/"+submitted.JobID, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown jobs are 404
	rec = env.do(t, http.MethodDelete, "/api/processing/jobs/job_20250101000000_deadbeefdeadbeef", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRetryJob_RejectsNonFailed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/processing/text", dto.SubmitTextRequest{Text: "hi"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	submitted := decodeJSON[dto.SubmitResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/processing/jobs/"+submitted.JobID+"/retry", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetConfig_MaterializesDefaults(t *testing.T) {
	env := newTestEnv(t)
	token := bearerToken("user-1")

	rec := env.do(t, http.MethodGet, "/api/config", nil, token)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[dto.ConfigResponse](t, rec)
	assert.Equal(t, "user-1", resp.UserID)
	assert.True(t, resp.AutoSyncEnabled)
	assert.Equal(t, "inbox", resp.DefaultCategory)
	assert.Len(t, resp.CategoriesConfig, 6)
	require.NotNil(t, resp.AIPreferences)
	assert.Equal(t, domain.CreativityBalanced, resp.AIPreferences.CreativityLevel)

	// The defaults were persisted on first read
	stored, err := env.configs.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestUpdateConfig(t *testing.T) {
	env := newTestEnv(t)
	token := bearerToken("user-1")

	vaultPath := "/home/user/vault"
	autoSync := false
	rec := env.do(t, http.MethodPut, "/api/config", dto.UpdateConfigRequest{
		VaultPath:       &vaultPath,
		AutoSyncEnabled: &autoSync,
		DefaultTags:     []string{"captured"},
	}, token)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[dto.ConfigResponse](t, rec)
	assert.Equal(t, vaultPath, resp.VaultPath)
	assert.False(t, resp.AutoSyncEnabled)
	assert.Equal(t, []string{"captured"}, resp.DefaultTags)

	t.Run("unknown default category rejected", func(t *testing.T) {
		bad := "journal"
		rec := env.do(t, http.MethodPut, "/api/config", dto.UpdateConfigRequest{
			DefaultCategory: &bad,
		}, token)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestValidateVault(t *testing.T) {
	env := newTestEnv(t)

	vaultPath := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(vaultPath, ".obsidian"), 0o755))

	rec := env.do(t, http.MethodPost, "/api/vault/validate", dto.ValidateVaultRequest{Path: vaultPath}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeJSON[vault.ValidationResult](t, rec)
	assert.True(t, result.Valid)
}

func TestVaultInfo_RequiresConfiguredPath(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/vault/info", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddleware_InvalidTokenFallsBackToAnonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/processing/text", dto.SubmitTextRequest{Text: "hi"}, "user-1:bogussignature")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[dto.SubmitResponse](t, rec)

	// The job belongs to the anonymous owner, not the claimed user
	_, err := env.jobs.Get(context.Background(), resp.JobID, domain.AnonymousUserID)
	assert.NoError(t, err)
}
