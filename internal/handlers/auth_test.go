package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/construction-schedule-api/internal/constants"
	"github.com/yukikurage/construction-schedule-api/internal/dto"
	apierrors "github.com/yukikurage/construction-schedule-api/internal/errors"
	"github.com/yukikurage/construction-schedule-api/internal/middleware"
	"github.com/yukikurage/construction-schedule-api/internal/repository"
	"github.com/yukikurage/construction-schedule-api/internal/services"
	"gorm.io/gorm"
)

type authTestEnv struct {
	db          *gorm.DB
	handler     *AuthHandler
	authService *services.AuthService
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlerTestDB(t)

	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(userRepo)
	handler := NewAuthHandler(authService)

	return authTestEnv{
		db:          db,
		handler:     handler,
		authService: authService,
	}
}

func newAuthRouter(env authTestEnv) *gin.Engine {
	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/api/auth/signup", env.handler.Signup)
	r.POST("/api/auth/login", env.handler.Login)
	r.POST("/api/auth/logout", env.handler.Logout)
	r.GET("/api/auth/me", middleware.RequireAuth(), env.handler.GetCurrentUser)
	return r
}

func TestAuthHandler_Signup(t *testing.T) {
	env := setupAuthTestEnv(t)

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/api/auth/signup", env.handler.Signup)

	payload := map[string]string{
		"username": "newuser",
		"password": "supersecret",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, payload["username"], response.Username)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Signup(services.SignupInput{
		Username: "existing",
		Password: "supersecret",
	})
	require.NoError(t, err)

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/api/auth/login", env.handler.Login)

	payload := map[string]string{
		"username": "existing",
		"password": "supersecret",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, payload["username"], response.Username)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, err := env.authService.Signup(services.SignupInput{
		Username: "current-user",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(constants.ContextKeyUserID, user.ID)

	env.handler.GetCurrentUser(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, user.Username, response.Username)
}

func TestAuthHandler_StaleSessionIsEnded(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	user, err := env.authService.Signup(services.SignupInput{Username: "leaving", Password: "supersecret"})
	require.NoError(t, err)

	w := performRequest(t, r, http.MethodPost, "/api/auth/login", map[string]string{"username": "leaving", "password": "supersecret"}, 0)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	require.NoError(t, env.db.Delete(user).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var expired bool
	for _, c := range w.Result().Cookies() {
		if c.Name == constants.SessionCookieName && c.MaxAge < 0 {
			expired = true
		}
	}
	require.True(t, expired, "expected session cookie to be expired")
}

func TestAuthHandler_SignupFailures(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	w := performRequest(t, r, http.MethodPost, "/api/auth/signup", map[string]string{"username": "shorty", "password": "short"}, 0)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/auth/signup", map[string]string{"username": "ab", "password": "supersecret"}, 0)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/auth/signup", map[string]string{"username": "  ab  ", "password": "supersecret"}, 0)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/auth/signup", map[string]string{"username": "taken", "password": "supersecret"}, 0)
	require.Equal(t, http.StatusCreated, w.Code)
	w = performRequest(t, r, http.MethodPost, "/api/auth/signup", map[string]string{"username": "taken", "password": "supersecret"}, 0)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, apierrors.ErrCodeAlreadyExists, decodeBody[apierrors.APIError](t, w).Code)
}

func TestAuthHandler_LoginWrongPassword(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	_, err := env.authService.Signup(services.SignupInput{Username: "existing", Password: "supersecret"})
	require.NoError(t, err)

	w := performRequest(t, r, http.MethodPost, "/api/auth/login", map[string]string{"username": "existing", "password": "wrongpass"}, 0)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, apierrors.ErrCodeInvalidCredentials, decodeBody[apierrors.APIError](t, w).Code)
	require.Empty(t, w.Result().Cookies())
}

func TestAuthHandler_BindErrorListsFields(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	w := performRequest(t, r, http.MethodPost, "/api/auth/login", map[string]string{"username": "someone"}, 0)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody[struct {
		Code    string       `json:"code"`
		Details []FieldError `json:"details"`
	}](t, w)
	require.Equal(t, apierrors.ErrCodeInvalidInput, body.Code)
	require.Equal(t, []FieldError{{Field: "Password", Rule: "required"}}, body.Details)

	w = performRequest(t, r, http.MethodPost, "/api/auth/login", "{not json", 0)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid request body", decodeBody[apierrors.APIError](t, w).Message)
}

func TestAuthHandler_SessionRoundTrip(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	_, err := env.authService.Signup(services.SignupInput{Username: "roundtrip", Password: "supersecret"})
	require.NoError(t, err)

	w := performRequest(t, r, http.MethodPost, "/api/auth/login", map[string]string{"username": "roundtrip", "password": "supersecret"}, 0)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var me dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.Equal(t, "roundtrip", me.Username)

	w = performRequest(t, r, http.MethodGet, "/api/auth/me", nil, 0)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
