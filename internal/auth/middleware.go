// Auth middleware is used to authenticate the game client calling Waitingway.
// Clients send their account UUID with either the shared client secret (Basic) or a signed JWT (Bearer).

package auth

import (
	"Waitingway/internal/errors"
	"Waitingway/pkg/log"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Key of the authenticated account UUID in the request context.
const AccountKey = "Username"

// This middleware authenticates the caller and stores its account UUID under AccountKey.
// Blocks the request to go further into other handlers if the credentials are invalid.
// Bearer tokens are rejected when jwtSecret is empty.
func AuthMiddleware(logger log.Logger, clientSecretHash string, jwtSecret string) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		header := gctx.GetHeader("Authorization")
		var (
			account uuid.UUID
			err     error
		)
		switch {
		case strings.HasPrefix(header, "Basic "):
			account, err = basicAccount(gctx, clientSecretHash)
		case strings.HasPrefix(header, "Bearer ") && jwtSecret != "":
			account, err = bearerAccount(strings.TrimPrefix(header, "Bearer "), jwtSecret)
		default:
			err = errors.Unauthorized("No credentials given")
		}
		if err != nil {
			logger.WithCtx(gctx).Debug().Err(err).Msg("Authentication failed")
			resp := errors.Unauthorized(err.Error())
			gctx.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		// Set account in request's context
		// This pair will be used further down in the handler chain
		gctx.Set(AccountKey, account)
		gctx.Next()
	}
}

// Returns the account stored by AuthMiddleware, false if the request wasn't authenticated.
func Account(gctx *gin.Context) (uuid.UUID, bool) {
	v, ok := gctx.Get(AccountKey)
	if !ok {
		return uuid.Nil, false
	}
	account, ok := v.(uuid.UUID)
	return account, ok
}

// Helper to validate Basic credentials, username is the account UUID.
func basicAccount(gctx *gin.Context, clientSecretHash string) (uuid.UUID, error) {
	username, password, ok := gctx.Request.BasicAuth()
	if !ok {
		return uuid.Nil, errors.New("Malformed credentials")
	}
	account, err := uuid.Parse(username)
	if err != nil {
		return uuid.Nil, errors.New("Invalid username")
	}
	if password == "" {
		return uuid.Nil, errors.New("No password given")
	}
	if bcrypt.CompareHashAndPassword([]byte(clientSecretHash), []byte(password)) != nil {
		return uuid.Nil, errors.New("Invalid password")
	}
	return account, nil
}

// Helper to parse a HS256 token carrying the account UUID in its username claim.
func bearerAccount(token, secret string) (uuid.UUID, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		// Check the signing method
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method found: %s", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, errors.New("Invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("Invalid token claims")
	}
	username, ok := claims["username"].(string)
	if !ok {
		return uuid.Nil, errors.New("Invalid token claims")
	}
	account, err := uuid.Parse(username)
	if err != nil {
		return uuid.Nil, errors.New("Invalid username")
	}
	return account, nil
}
