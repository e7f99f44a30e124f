package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/dmitrijs2005/bidmarket/internal/server/auth"
	"github.com/dmitrijs2005/bidmarket/internal/server/config"
	"github.com/dmitrijs2005/bidmarket/internal/server/documents"
	"github.com/dmitrijs2005/bidmarket/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bidmarket/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (o *outbox) SendCode(_ context.Context, email, code string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.codes[email] = code
	return nil
}

func (o *outbox) code(email string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.codes[email]
}

type testAPI struct {
	t      *testing.T
	router http.Handler
	box    *outbox
	cfg    *config.Config
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.MaxDocumentSize = 1 << 10

	box := &outbox{codes: map[string]string{}}
	repos := repomanager.NewMemoryRepositoryManager()
	us := services.NewUserService(repos, cfg, box, logging.Nop())
	ms := services.NewMarketService(repos, documents.NewMemoryStore(), logging.Nop())
	srv := NewServer(":0", logging.Nop(), us, ms, cfg.MaxDocumentSize)

	return &testAPI{t: t, router: srv.Handler(), box: box, cfg: cfg}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type authBody struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func (a *testAPI) signUp(name, email, role string) authBody {
	a.t.Helper()
	rr := a.do(http.MethodPost, "/api/requestotp", "", map[string]string{
		"name": name, "email": email, "password": "pw", "role": role,
	})
	require.Equal(a.t, http.StatusOK, rr.Code, rr.Body.String())

	rr = a.do(http.MethodPost, "/api/verifyotp", "", map[string]string{"email": email, "otp": a.box.code(email)})
	require.Equal(a.t, http.StatusOK, rr.Code, rr.Body.String())
	return decode[authBody](a.t, rr)
}

func message(t *testing.T, rr *httptest.ResponseRecorder) string {
	return decode[map[string]any](t, rr)["message"].(string)
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthEndpoints(t *testing.T) {
	a := newTestAPI(t)

	rr := a.do(http.MethodPost, "/api/requestotp", "", map[string]string{"name": "Ann", "email": "ann@example.com", "password": "pw", "role": "BUYER"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OTP sent to ann@example.com", message(t, rr))

	rr = a.do(http.MethodPost, "/api/verifyotp", "", map[string]string{"email": "ann@example.com", "otp": "nope"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid OTP", message(t, rr))

	rr = a.do(http.MethodPost, "/api/verifyotp", "", map[string]string{"email": "ann@example.com", "otp": a.box.code("ann@example.com")})
	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[authBody](t, rr)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "BUYER", res.User.Role)
	assert.NotContains(t, rr.Body.String(), "password", "credentials never leave the server")
	assert.NotContains(t, rr.Body.String(), "salt")

	rr = a.do(http.MethodPost, "/api/requestotp", "", map[string]string{"name": "Ann", "email": "ann@example.com", "password": "pw", "role": "BUYER"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@example.com", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid email or password", message(t, rr))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	bad := httptest.NewRecorder()
	a.router.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestDetails_RequiresValidToken(t *testing.T) {
	a := newTestAPI(t)
	ann := a.signUp("Ann", "ann@example.com", "BUYER")

	rr := a.do(http.MethodGet, "/api/auth/details", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	expired, err := auth.GenerateToken(ann.User.ID, "BUYER", []byte(a.cfg.SecretKey), -time.Minute)
	require.NoError(t, err)
	rr = a.do(http.MethodGet, "/api/auth/details", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "token expired", message(t, rr))

	rr = a.do(http.MethodGet, "/api/auth/details", ann.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[struct {
		Status string `json:"status"`
		Data   struct {
			ID              string `json:"id"`
			Email           string `json:"email"`
			ProjectsCreated []any  `json:"projectsCreated"`
		} `json:"data"`
	}](t, rr)
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, ann.User.ID, body.Data.ID)
	assert.NotNil(t, body.Data.ProjectsCreated)
}

func TestProjectLifecycle(t *testing.T) {
	a := newTestAPI(t)
	ann := a.signUp("Ann", "ann@example.com", "BUYER")
	sam := a.signUp("Sam", "sam@example.com", "SELLER")

	newProject := map[string]any{"title": "Site", "description": "d", "budgetMin": 100, "budgetMax": 250.5, "deadline": "2030-01-01"}
	rr := a.do(http.MethodPost, "/api/projects", sam.Token, newProject)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = a.do(http.MethodPost, "/api/projects", ann.Token, newProject)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	project := decode[map[string]any](t, rr)
	assert.Equal(t, 250.5, project["budgetMax"], "amounts are JSON numbers")
	projectID := project["id"].(string)

	rr = a.do(http.MethodGet, "/api/projects", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]map[string]any](t, rr), 1)

	rr = a.do(http.MethodPost, "/api/bids", sam.Token, map[string]any{"projectId": projectID, "amount": "120.00", "estimatedTime": "1 week", "message": "hi"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	bidID := decode[map[string]any](t, rr)["id"].(string)

	rr = a.do(http.MethodPost, "/api/projects/"+projectID+"/select", sam.Token, map[string]string{"bidId": bidID})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = a.do(http.MethodPost, "/api/projects/"+projectID+"/select", ann.Token, map[string]string{"bidId": bidID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "IN_PROGRESS", decode[map[string]any](t, rr)["status"])

	rr = a.upload(projectID, sam.Token, "COMPLETED", bidID, "report.txt", []byte("done"))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "COMPLETED", decode[map[string]any](t, rr)["status"])

	rr = a.do(http.MethodGet, "/api/projects/"+projectID+"/document", ann.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "done", rr.Body.String())

	rr = a.do(http.MethodGet, "/api/projects/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Project not found", message(t, rr))
}

func TestCompleteProject_RejectsBadForms(t *testing.T) {
	a := newTestAPI(t)
	sam := a.signUp("Sam", "sam@example.com", "SELLER")

	rr := a.upload("p-1", sam.Token, "IN_PROGRESS", "b-1", "r.txt", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = a.upload("p-1", sam.Token, "COMPLETED", "", "r.txt", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = a.upload("p-1", sam.Token, "COMPLETED", "b-1", "big.bin", bytes.Repeat([]byte("x"), 2<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	rr = a.upload("p-1", sam.Token, "COMPLETED", "b-1", "r.txt", []byte("x"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func (a *testAPI) upload(projectID, token, status, bidID, name string, content []byte) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(a.t, mw.WriteField("status", status))
	require.NoError(a.t, mw.WriteField("bidId", bidID))
	fw, err := mw.CreateFormFile("document", name)
	require.NoError(a.t, err)
	_, err = fw.Write(content)
	require.NoError(a.t, err)
	require.NoError(a.t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/projects/"+projectID+"/status", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func TestRun_StopsOnCancel(t *testing.T) {
	a := newTestAPI(t)
	repos := repomanager.NewMemoryRepositoryManager()
	us := services.NewUserService(repos, a.cfg, a.box, logging.Nop())
	ms := services.NewMarketService(repos, documents.NewMemoryStore(), logging.Nop())
	srv := NewServer("127.0.0.1:0", logging.Nop(), us, ms, a.cfg.MaxDocumentSize)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
