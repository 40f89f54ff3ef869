package middlewares

import (
	"Waitingway/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
)

// Header carrying the correlation id in both directions.
const CorrelationHeader = "X-Correlation-ID"

// This middleware will be used to populate every incoming request's context with an Unique CorrelationID.
// Which will help to debug an issue which happened between a chain of events during handling a request.
// The game client may already send one for its own request chain, which is kept as is.
func CorrelationMiddleware(logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		correlationID := gctx.GetHeader(CorrelationHeader)
		if _, err := xid.FromString(correlationID); err != nil {
			correlationID = xid.New().String()
		}
		// Setting the correlationID in request's context
		gctx.Set("correlation_id", correlationID)
		// Setting the correlationID to response header
		gctx.Writer.Header().Set(CorrelationHeader, correlationID)
		gctx.Next()
	}
}
