// Exposes the REST APIs keeping queue notifications in sync in Waitingway.

package notification

import (
	"Waitingway/internal/auth"
	"Waitingway/internal/envelope"
	"Waitingway/internal/errors"
	"Waitingway/pkg/log"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Registers the create, update and delete handlers of one notification kind under path.
func NotificationHandlers[C, U, D, S any](router *gin.Engine, path string, service *Service[C, U, D, S], AuthWithAcc gin.HandlerFunc, logger log.Logger) {
	notificationGroup := router.Group(path)
	{
		notificationGroup.POST("", AuthWithAcc, createNotification(service, logger))
		notificationGroup.PATCH("", AuthWithAcc, updateNotification(service, logger))
		notificationGroup.DELETE("", AuthWithAcc, deleteNotification(service, logger))
	}
}

// createNotification returns a handler DMing every linked account, the token comes back in the response headers.
func createNotification[C, U, D, S any](service *Service[C, U, D, S], logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		account, ok := requestAccount(gctx, logger)
		if !ok {
			return
		}
		var data C
		if !bindPayload(gctx, logger, &data) {
			return
		}

		token, err := service.Create(gctx, account, data)
		if err != nil {
			respond(gctx, err)
			return
		} else if token == nil {
			// Below threshold, nothing was sent
			gctx.Status(http.StatusNoContent)
			return
		}
		token.SetHeader(gctx.Writer.Header())
		gctx.Status(http.StatusCreated)
	}
}

// updateNotification returns a handler re-rendering every message of the notification in the request token.
func updateNotification[C, U, D, S any](service *Service[C, U, D, S], logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		account, ok := requestAccount(gctx, logger)
		if !ok {
			return
		}
		var data U
		if !bindPayload(gctx, logger, &data) {
			return
		}
		if err := service.Update(gctx, account, envelope.FromHeader(gctx.Request.Header), data); err != nil {
			respond(gctx, err)
			return
		}
		gctx.Status(http.StatusNoContent)
	}
}

// deleteNotification returns a handler finishing every message of the notification in the request token.
func deleteNotification[C, U, D, S any](service *Service[C, U, D, S], logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		account, ok := requestAccount(gctx, logger)
		if !ok {
			return
		}
		var data D
		if !bindPayload(gctx, logger, &data) {
			return
		}
		if err := service.Delete(gctx, account, envelope.FromHeader(gctx.Request.Header), data); err != nil {
			respond(gctx, err)
			return
		}
		gctx.Status(http.StatusNoContent)
	}
}

func requestAccount(gctx *gin.Context, logger log.Logger) (uuid.UUID, bool) {
	account, ok := auth.Account(gctx)
	if !ok {
		// Type assertion error
		logger.WithCtx(gctx).Error().Msg("Type assertion error in notification handler")
		gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
	}
	return account, ok
}

// Helper to bind and validate a payload, writes the error response itself when false.
func bindPayload[T any](gctx *gin.Context, logger log.Logger, data *T) bool {
	// Serialize received data into the payload struct
	if binderr := gctx.ShouldBindJSON(data); binderr != nil {
		// Error occured during serialization
		logger.WithCtx(gctx).Error().Err(binderr).Msg("Binding error occured with notification payload.")
		gctx.JSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
		return false
	}
	if _, valerr := govalidator.ValidateStruct(data); valerr != nil {
		resp := errors.GenerateValidationErrorResponse(valerr.(govalidator.Errors).Errors())
		gctx.JSON(resp.Status, resp)
		return false
	}
	if v, ok := any(data).(interface{ Validate() error }); ok {
		if valerr := v.Validate(); valerr != nil {
			resp := errors.GenerateValidationErrorResponse([]error{valerr})
			gctx.JSON(resp.Status, resp)
			return false
		}
	}
	return true
}

// Helper writing err as an ErrorResponse, unknown errors are dispatch failures.
func respond(gctx *gin.Context, err error) {
	resp := errors.AsResponse(err)
	gctx.JSON(resp.Status, resp)
}
