// Exposes the REST APIs used to subscribe to travel endpoints in Waitingway.

package subscription

import (
	"Waitingway/internal/auth"
	"Waitingway/internal/connection"
	"Waitingway/internal/entity"
	"Waitingway/internal/errors"
	"Waitingway/internal/world"
	"Waitingway/pkg/log"
	"context"
	"net/http"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/gin-gonic/gin"
)

// StateReader returns the latest prohibit flag of every requested world that has one.
type StateReader interface {
	ProhibitedByWorld(ctx context.Context, logger log.Logger, worldIDs []uint16) (map[uint16]bool, error)
}

// Everything the subscription handlers reach out to.
type api struct {
	service     Service
	catalog     *world.Catalog
	connections connection.Repository
	states      StateReader
	logger      log.Logger
}

// Body of both subscription requests.
type subscriptionBody struct {
	Kind      entity.EndpointKind `json:"kind"`
	ID        uint16              `json:"id"`
	DiscordID string              `json:"discord_id" valid:"required~discord_id:Discord id is required,snowflake~discord_id:Discord id must be a snowflake"`
}

// Registers all of the REST API handlers related to internal package subscription onto the gin server.
func SubscriptionHandlers(router *gin.Engine, service Service, catalog *world.Catalog, connections connection.Repository, states StateReader, AuthWithAcc gin.HandlerFunc, logger log.Logger) {
	a := api{service: service, catalog: catalog, connections: connections, states: states, logger: logger}
	subscriptionGroup := router.Group("/api/travel/subscriptions")
	{
		subscriptionGroup.POST("", AuthWithAcc, a.subscribe())
		subscriptionGroup.DELETE("", AuthWithAcc, a.unsubscribe())
	}
}

// subscribe returns a handler subscribing a linked discord account to a travel endpoint which is still closed.
func (a api) subscribe() gin.HandlerFunc {
	return func(gctx *gin.Context) {
		endpoint, subscriber, ok := a.bind(gctx)
		if !ok {
			return
		}
		worldIDs, _ := a.catalog.EndpointWorlds(endpoint)
		states, err := a.states.ProhibitedByWorld(gctx, a.logger, worldIDs)
		if err != nil {
			gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
			return
		}
		if alreadyOpen(endpoint, worldIDs, states) {
			gctx.JSON(http.StatusConflict, errors.Conflict("Travel to "+endpoint.String()+" is already open"))
			return
		}

		added, err := a.service.Subscribe(gctx, endpoint, subscriber)
		if err != nil {
			resp := errors.AsResponse(err)
			gctx.JSON(resp.Status, resp)
			return
		} else if !added {
			gctx.JSON(http.StatusConflict, errors.Conflict("Already subscribed"))
			return
		}
		gctx.JSON(http.StatusCreated, gin.H{"endpoint": endpoint, "subscriber": subscriber.String()})
	}
}

// unsubscribe returns a handler removing a linked discord account from a travel endpoint.
func (a api) unsubscribe() gin.HandlerFunc {
	return func(gctx *gin.Context) {
		endpoint, subscriber, ok := a.bind(gctx)
		if !ok {
			return
		}
		removed, err := a.service.Unsubscribe(gctx, endpoint, subscriber)
		if err != nil {
			resp := errors.AsResponse(err)
			gctx.JSON(resp.Status, resp)
			return
		} else if !removed {
			gctx.JSON(http.StatusNotFound, errors.NotFound("Not subscribed"))
			return
		}
		gctx.Status(http.StatusNoContent)
	}
}

// Helper to resolve the endpoint and subscriber of a request, writes the error response itself when false.
func (a api) bind(gctx *gin.Context) (entity.Endpoint, entity.Subscriber, bool) {
	account, ok := auth.Account(gctx)
	if !ok {
		// Type assertion error
		a.logger.WithCtx(gctx).Error().Msg("Type assertion error in subscription handler")
		gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
		return entity.Endpoint{}, entity.Subscriber{}, false
	}

	var body subscriptionBody
	// Serialize received data into subscriptionBody struct
	if binderr := gctx.ShouldBindJSON(&body); binderr != nil {
		// Error occured during serialization
		a.logger.WithCtx(gctx).Error().Err(binderr).Msg("Binding error occured with subscriptionBody struct.")
		gctx.JSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
		return entity.Endpoint{}, entity.Subscriber{}, false
	}
	endpoint := entity.Endpoint{Kind: body.Kind, ID: body.ID}
	if valerr := validate(body, endpoint); valerr != nil {
		gctx.JSON(valerr.Status, valerr)
		return entity.Endpoint{}, entity.Subscriber{}, false
	}
	discordID, err := strconv.ParseUint(body.DiscordID, 10, 64)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, errors.BadRequest("Discord id is out of range"))
		return entity.Endpoint{}, entity.Subscriber{}, false
	}

	if _, ok := a.catalog.EndpointWorlds(endpoint); !ok {
		gctx.JSON(http.StatusNotFound, errors.NotFound("Unknown "+string(endpoint.Kind)))
		return entity.Endpoint{}, entity.Subscriber{}, false
	}
	linked, err := connection.IsLinked(gctx, a.logger, a.connections, account, discordID)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
		return entity.Endpoint{}, entity.Subscriber{}, false
	} else if !linked {
		gctx.JSON(http.StatusForbidden, errors.Forbidden("Discord account is not linked to you"))
		return entity.Endpoint{}, entity.Subscriber{}, false
	}
	return endpoint, entity.DiscordSubscriber(discordID), true
}

// Helper to validate the body and endpoint against their validation-tags.
func validate(body subscriptionBody, endpoint entity.Endpoint) *errors.ErrorResponse {
	var errs []error
	for _, v := range []interface{}{endpoint, body} {
		if _, valerr := govalidator.ValidateStruct(v); valerr != nil {
			errs = append(errs, valerr.(govalidator.Errors).Errors()...)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	resp := errors.GenerateValidationErrorResponse(errs)
	return &resp
}

// Returns true if subscribing makes no sense because travel is open already.
// A world without any recorded state counts as open, a datacenter is open once any of its worlds is.
func alreadyOpen(endpoint entity.Endpoint, worldIDs []uint16, states map[uint16]bool) bool {
	if endpoint.Kind == entity.EndpointWorld {
		prohibited, ok := states[worldIDs[0]]
		return !ok || !prohibited
	}
	for _, prohibited := range states {
		if !prohibited {
			return true
		}
	}
	return false
}
