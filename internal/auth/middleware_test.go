// Tests of the auth middleware in Waitingway.

package auth

import (
	"Waitingway/pkg/log"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var logger log.Logger = log.NewWithWriter("test", io.Discard)

const (
	clientSecret = "trans rights"
	jwtSecret    = "jwt-secret"
)

// Helper building a router echoing the authenticated account.
func newRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte(clientSecret), bcrypt.MinCost)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/whoami", AuthMiddleware(logger, string(hash), jwtSecret), func(gctx *gin.Context) {
		account, ok := Account(gctx)
		if !ok {
			gctx.Status(http.StatusInternalServerError)
			return
		}
		gctx.String(http.StatusOK, account.String())
	})
	return router
}

func serve(router *gin.Engine, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	setup(req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signed(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key interface{}) string {
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestBasicAuth(t *testing.T) {
	router := newRouter(t)
	account := uuid.New()

	w := serve(router, func(r *http.Request) { r.SetBasicAuth(account.String(), clientSecret) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, account.String(), w.Body.String())

	tests := map[string]func(*http.Request){
		"no header":      func(r *http.Request) {},
		"wrong password": func(r *http.Request) { r.SetBasicAuth(account.String(), "nope") },
		"empty password": func(r *http.Request) { r.SetBasicAuth(account.String(), "") },
		"not a uuid":     func(r *http.Request) { r.SetBasicAuth("Y'shtola", clientSecret) },
		"malformed":      func(r *http.Request) { r.Header.Set("Authorization", "Basic !!!") },
	}
	for name, setup := range tests {
		assert.Equal(t, http.StatusUnauthorized, serve(router, setup).Code, name)
	}
}

func TestBearerAuth(t *testing.T) {
	router := newRouter(t)
	account := uuid.New()

	token := signed(t, jwt.MapClaims{"username": account.String(), "exp": time.Now().Add(time.Hour).Unix()}, jwt.SigningMethodHS256, []byte(jwtSecret))
	w := serve(router, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, account.String(), w.Body.String())

	expired := signed(t, jwt.MapClaims{"username": account.String(), "exp": time.Now().Add(-time.Hour).Unix()}, jwt.SigningMethodHS256, []byte(jwtSecret))
	otherKey := signed(t, jwt.MapClaims{"username": account.String()}, jwt.SigningMethodHS256, []byte("other"))
	noClaim := signed(t, jwt.MapClaims{"sub": account.String()}, jwt.SigningMethodHS256, []byte(jwtSecret))
	for name, tok := range map[string]string{"expired": expired, "other key": otherKey, "no claim": noClaim, "garbage": "a.b.c"} {
		w := serve(router, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) })
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}
