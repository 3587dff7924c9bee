package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docman/models"
	"docman/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testPassword = "Secret123!"

// recordingSender captures reset emails instead of delivering them.
type recordingSender struct {
	to    string
	token string
}

func (r *recordingSender) SendPasswordReset(_ context.Context, to, tok string) error {
	r.to = to
	r.token = tok
	return nil
}

func testConfig() *Config {
	return &Config{
		Env:             "test",
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

// setupTestApp wires the router against a fresh in-memory database. The
// single-connection pool keeps SQLite happy under the concurrency tests and
// keeps the shared-cache memory database alive for the test's duration.
func setupTestApp(t *testing.T) (*gin.Engine, *app, *recordingSender) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger = zap.NewNop()

	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&models.User{}, &models.RevokedToken{}, &models.Document{}))
	db = gdb

	cfg := testConfig()
	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	require.NoError(t, err)
	sender := &recordingSender{}
	a := &app{cfg: cfg, issuer: issuer, mailer: sender}

	r := gin.New()
	setupRoutes(r, a)
	return r, a, sender
}

// createTestUser inserts a user directly, bypassing the register endpoint.
// MinCost keeps the bcrypt work out of the test clock.
func createTestUser(t *testing.T, emailAddr, username string, role models.Role) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Email: emailAddr, Username: username, Role: role, PasswordHash: hashed}
	require.NoError(t, db.Create(u).Error)
	return u
}

// performRequest drives the router the way the clients do: optional bearer
// token, optional refresh cookie, JSON bodies.
func performRequest(r http.Handler, method, path string, body io.Reader, bearer string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// refreshCookieFrom extracts the refresh cookie set by a response.
func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == refreshCookieName {
			return ck
		}
	}
	t.Fatal("no refresh cookie in response")
	return nil
}

// loginAs logs a seeded user in and returns the access token and refresh cookie.
func loginAs(t *testing.T, r http.Handler, emailAddr string) (string, *http.Cookie) {
	t.Helper()
	rec := performRequest(r, http.MethodPost, "/auth/login",
		jsonBody(t, map[string]string{"email": emailAddr, "password": testPassword}), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token, refreshCookieFrom(t, rec)
}
