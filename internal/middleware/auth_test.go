package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("test-session", store))
	return router
}

func setSessionCookie(t *testing.T, router *gin.Engine, values map[string]interface{}) *http.Cookie {
	setupPath := "/setup-session-" + t.Name()
	router.GET(setupPath, func(c *gin.Context) {
		session := sessions.Default(c)
		for k, v := range values {
			session.Set(k, v)
		}
		require.NoError(t, session.Save())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", setupPath, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestRequireAuth_NoSession(t *testing.T) {
	router := newTestRouter()
	router.GET("/protected", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestRequireAuth_ValidSession(t *testing.T) {
	router := newTestRouter()

	var gotUserID int
	var gotUsername, gotRole string
	router.GET("/protected", RequireAuth(), func(c *gin.Context) {
		gotUserID = c.GetInt(UserIDKey)
		gotUsername = c.GetString(UsernameKey)
		gotRole = c.GetString(RoleKey)
		c.Status(http.StatusOK)
	})

	cookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   42,
		UsernameKey: "ana",
		RoleKey:     "student",
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 42, gotUserID)
	assert.Equal(t, "ana", gotUsername)
	assert.Equal(t, "student", gotRole)
}

func TestRequireAuth_Float64UserID(t *testing.T) {
	router := newTestRouter()

	var gotUserID int
	router.GET("/protected", RequireAuth(), func(c *gin.Context) {
		gotUserID = c.GetInt(UserIDKey)
		c.Status(http.StatusOK)
	})

	cookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   float64(7),
		UsernameKey: "ana",
		RoleKey:     "student",
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, gotUserID)
}

func TestRequireAuth_IncompleteSession(t *testing.T) {
	router := newTestRouter()
	router.GET("/protected", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// user_id present but username missing
	cookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey: 42,
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireTeacher(t *testing.T) {
	tests := []struct {
		name           string
		session        map[string]interface{}
		expectedStatus int
	}{
		{
			name: "teacher passes",
			session: map[string]interface{}{
				UserIDKey:   1,
				UsernameKey: "prof",
				RoleKey:     "teacher",
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "student forbidden",
			session: map[string]interface{}{
				UserIDKey:   2,
				UsernameKey: "ana",
				RoleKey:     "student",
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "missing role forbidden",
			session: map[string]interface{}{
				UserIDKey:   3,
				UsernameKey: "ana",
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "no session unauthorized",
			session:        nil,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter()
			router.GET("/teacher-only", RequireTeacher(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/teacher-only", nil)
			if tt.session != nil {
				req.AddCookie(setSessionCookie(t, router, tt.session))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
