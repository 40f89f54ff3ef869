// Mock methods required in Waitingway tests are all here.

package test

import (
	"Waitingway/internal/auth"
	"Waitingway/pkg/log"
	"Waitingway/pkg/middlewares"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carrying the account a test request acts as, read by MockAuthMiddleware.
const AccountHeader = "X-Test-Account"

// Returns a fresh gin router in test mode, each test wires its own routes.
func MockRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middlewares.CORSMiddleware("*")) // CORS middleware which allows request from all origin
	return router
}

// Stands in for auth.AuthMiddleware, the account is taken from AccountHeader as is.
func MockAuthMiddleware(logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		account, err := uuid.Parse(gctx.GetHeader(AccountHeader))
		if err != nil {
			gctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		// Set account in request's context
		// This pair will be used further down in the handler chain
		gctx.Set(auth.AccountKey, account)
		gctx.Next()
	}
}
