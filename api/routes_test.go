package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/moby/sys/atomicwriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coreybb/couponbook/credentials"
	"github.com/coreybb/couponbook/datastore"
	"github.com/coreybb/couponbook/delivery"
	"github.com/coreybb/couponbook/docstore"
	"github.com/coreybb/couponbook/lifecycle"
	"github.com/coreybb/couponbook/models"
	rh "github.com/coreybb/couponbook/route-handlers"
)

func init() {
	credentials.Cost = bcrypt.MinCost
}

type noticeLog struct {
	mu      sync.Mutex
	notices []delivery.Notice
}

func (l *noticeLog) Notify(_ context.Context, n delivery.Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

func (l *noticeLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.notices)
}

type testServer struct {
	handler http.Handler
	users   *datastore.UserRepository
	notices *noticeLog
}

func newTestServer(t *testing.T, couponOpts ...docstore.Option) *testServer {
	t.Helper()
	dir := t.TempDir()

	coupons, err := docstore.Open[models.Coupon](dir, "coupons", couponOpts...)
	require.NoError(t, err)
	users, err := docstore.Open[models.User](dir, "users")
	require.NoError(t, err)
	suggestions, err := docstore.Open[models.Suggestion](dir, "suggestions")
	require.NoError(t, err)

	userRepo := datastore.NewUserRepository(users, nil)
	suggestionRepo := datastore.NewSuggestionRepository(suggestions)
	notices := &noticeLog{}
	engine := lifecycle.NewEngine(datastore.NewCouponRepository(coupons), userRepo, suggestionRepo, notices, nil)

	return &testServer{
		handler: SetupRoutes(
			rh.NewCouponHandler(engine),
			rh.NewUserHandler(userRepo),
			rh.NewAuthHandler(userRepo),
			rh.NewSuggestionHandler(engine, suggestionRepo),
		),
		users:   userRepo,
		notices: notices,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) createUser(t *testing.T, first, email string, admin bool) models.User {
	t.Helper()
	u, err := s.users.CreateUser(context.Background(), datastore.UserInput{
		FirstName: first, LastName: "Test", Email: email, Password: "secret", IsAdmin: admin,
	})
	require.NoError(t, err)
	return *u
}

func TestCouponLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.createUser(t, "Admin", "admin@example.com", true)
	alice := s.createUser(t, "Alice", "alice@example.com", false)
	bob := s.createUser(t, "Bob", "bob@example.com", false)

	rec := s.do(t, http.MethodPost, "/api/coupons",
		`{"userIds":["`+alice.ID+`","`+bob.ID+`"],"title":"Dinner","content":"One dinner","adminId":"`+admin.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		Message string          `json:"message"`
		Coupons []models.Coupon `json:"coupons"`
	}](t, rec)
	assert.Equal(t, "Coupons created successfully", created.Message)
	require.Len(t, created.Coupons, 2)
	id := created.Coupons[0].ID

	rec = s.do(t, http.MethodGet, "/api/coupons?userId="+alice.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Coupon](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/coupons?adminId="+admin.ID, "")
	assert.Len(t, decode[[]models.Coupon](t, rec), 2)

	rec = s.do(t, http.MethodPut, "/api/coupons/"+id+"/schedule", `{"date":"2026-07-04T15:30:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	scheduled := decode[struct {
		Coupon models.Coupon `json:"coupon"`
	}](t, rec)
	assert.Equal(t, models.CouponStateScheduled, scheduled.Coupon.State())

	rec = s.do(t, http.MethodPut, "/api/coupons/"+id+"/redeem", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	redeemed := decode[struct {
		Message string        `json:"message"`
		Coupon  models.Coupon `json:"coupon"`
	}](t, rec)
	assert.Equal(t, "Coupon redeemed successfully", redeemed.Message)
	assert.True(t, redeemed.Coupon.IsActive)
	require.NotNil(t, redeemed.Coupon.ScheduledDate)

	rec = s.do(t, http.MethodDelete, "/api/coupons/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/coupons/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// created x2, scheduled pair, redeemed pair
	assert.Equal(t, 6, s.notices.count())
}

func TestCouponErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"create missing fields", http.MethodPost, "/api/coupons", `{"title":"t"}`, http.StatusBadRequest},
		{"create malformed json", http.MethodPost, "/api/coupons", `{"title":`, http.StatusBadRequest},
		{"create unknown field", http.MethodPost, "/api/coupons", `{"userIds":["u"],"title":"t","content":"c","adminId":"a","x":1}`, http.StatusBadRequest},
		{"schedule without date", http.MethodPut, "/api/coupons/abc/schedule", `{}`, http.StatusBadRequest},
		{"schedule bad date", http.MethodPut, "/api/coupons/abc/schedule", `{"date":"soon"}`, http.StatusBadRequest},
		{"schedule missing coupon", http.MethodPut, "/api/coupons/abc/schedule", `{"date":"2026-07-04"}`, http.StatusNotFound},
		{"redeem missing coupon", http.MethodPut, "/api/coupons/abc/redeem", ``, http.StatusNotFound},
		{"delete missing coupon", http.MethodDelete, "/api/coupons/abc", ``, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			body := decode[map[string]any](t, rec)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestStorageFailureIsInternalServerError(t *testing.T) {
	var failing atomic.Bool
	s := newTestServer(t, docstore.WithWriter(func(path string, data []byte, perm os.FileMode) error {
		if failing.Load() {
			return errors.New("disk unavailable")
		}
		return atomicwriter.WriteFile(path, data, perm)
	}))
	admin := s.createUser(t, "Admin", "admin@example.com", true)
	alice := s.createUser(t, "Alice", "alice@example.com", false)

	createBody := `{"userIds":["` + alice.ID + `"],"title":"Dinner","content":"One dinner","adminId":"` + admin.ID + `"}`
	rec := s.do(t, http.MethodPost, "/api/coupons", createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[struct {
		Coupons []models.Coupon `json:"coupons"`
	}](t, rec).Coupons[0].ID
	sent := s.notices.count()

	failing.Store(true)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"create", http.MethodPost, "/api/coupons", createBody},
		{"schedule", http.MethodPut, "/api/coupons/" + id + "/schedule", `{"date":"2026-07-04T15:30:00Z"}`},
		{"redeem", http.MethodPut, "/api/coupons/" + id + "/redeem", ``},
		{"delete", http.MethodDelete, "/api/coupons/" + id, ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())
			assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
		})
	}

	rec = s.do(t, http.MethodGet, "/api/coupons", "")
	coupons := decode[[]models.Coupon](t, rec)
	require.Len(t, coupons, 1)
	assert.Equal(t, models.CouponStatePending, coupons[0].State())
	assert.Equal(t, sent, s.notices.count())
}

func TestEditUserReadsIsAdminLoosely(t *testing.T) {
	s := newTestServer(t)
	u := s.createUser(t, "Ada", "ada@example.com", false)

	rec := s.do(t, http.MethodPut, "/api/users/"+u.ID, `{"isAdmin":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[struct {
		User models.User `json:"user"`
	}](t, rec).User.IsAdmin)

	rec = s.do(t, http.MethodPut, "/api/users/"+u.ID, `{"isAdmin":""}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[struct {
		User models.User `json:"user"`
	}](t, rec).User.IsAdmin)
}

func TestUserEndpointsNeverExposePassword(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/users",
		`{"firstName":"Ada","lastName":"L","email":"ada@example.com","password":"pw","isAdmin":"True"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	created := decode[struct {
		User models.User `json:"user"`
	}](t, rec)
	assert.True(t, created.User.IsAdmin)
	id := created.User.ID

	for _, path := range []string{"/api/users", "/api/users/" + id} {
		rec = s.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password")
	}

	rec = s.do(t, http.MethodPut, "/api/users/"+id, `{"lastName":"Lovelace","isAdmin":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode[struct {
		User models.User `json:"user"`
	}](t, rec)
	assert.Equal(t, "Lovelace", edited.User.LastName)
	assert.Equal(t, "Ada", edited.User.FirstName)
	assert.False(t, edited.User.IsAdmin)

	rec = s.do(t, http.MethodDelete, "/api/users/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/users/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPut, "/api/users/"+id, `{"lastName":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/users", `{"firstName":"NoPassword","lastName":"x","email":"x@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "Ada", "ada@example.com", false)

	rec := s.do(t, http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	ok := decode[struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
		Success bool        `json:"success"`
	}](t, rec)
	assert.True(t, ok.Success)
	assert.Equal(t, "Login successful", ok.Message)
	assert.Equal(t, "ada@example.com", ok.User.Email)

	rec = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	failed := decode[map[string]any](t, rec)
	assert.Equal(t, false, failed["success"])

	rec = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"ada@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestions(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "Admin", "admin@example.com", true)
	alice := s.createUser(t, "Alice", "alice@example.com", false)

	rec := s.do(t, http.MethodPost, "/api/suggestions", `{"userId":"`+alice.ID+`","content":"More picnics"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		Suggestion models.Suggestion `json:"suggestion"`
	}](t, rec)
	assert.Equal(t, 1, s.notices.count())

	rec = s.do(t, http.MethodGet, "/api/suggestions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Suggestion](t, rec), 1)

	rec = s.do(t, http.MethodDelete, "/api/suggestions/"+created.Suggestion.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/suggestions/"+created.Suggestion.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/suggestions", `{"userId":"`+alice.ID+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmptyCollectionsListAsArrays(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/coupons", "/api/users", "/api/suggestions"} {
		rec := s.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String(), path)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", decode[map[string]string](t, rec)["status"])

	rec = s.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "POST /api/coupons")

	s.do(t, http.MethodGet, "/api/coupons", "")
	rec = s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "couponbook_http_requests_total")

	rec = s.do(t, http.MethodOptions, "/api/coupons", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
