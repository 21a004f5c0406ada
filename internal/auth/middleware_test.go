package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ndemidov/liber/internal/entities"
)

type fakeResolver struct {
	users map[string]*entities.User
}

func (r *fakeResolver) GetByToken(token string) (*entities.User, error) {
	if user, ok := r.users[token]; ok {
		return user, nil
	}
	return nil, errors.New("user not found")
}

func newTestRouter(resolver UserResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(TokenMiddleware(resolver))
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	return router
}

func TestTokenMiddleware_ValidToken(t *testing.T) {
	user := &entities.User{Username: "alice"}
	user.ID = 42
	router := newTestRouter(&fakeResolver{users: map[string]*entities.User{
		"secret-token": user,
	}})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
}

func TestTokenMiddleware_MissingHeader(t *testing.T) {
	router := newTestRouter(&fakeResolver{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenMiddleware_InvalidToken(t *testing.T) {
	router := newTestRouter(&fakeResolver{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenMiddleware_MalformedHeader(t *testing.T) {
	user := &entities.User{Username: "alice"}
	user.ID = 1
	router := newTestRouter(&fakeResolver{users: map[string]*entities.User{
		"secret-token": user,
	}})

	for _, header := range []string{"secret-token", "Basic secret-token", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q should be rejected", header)
	}
}

func TestGetUserID_Unset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, uint(0), GetUserID(c))
}
