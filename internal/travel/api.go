// Exposes the public REST API reading the latest travel states of Waitingway.

package travel

import (
	"Waitingway/internal/entity"
	"Waitingway/internal/errors"
	"Waitingway/internal/world"
	"Waitingway/pkg/log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Response of GET /api/travel.
type statesResponse struct {
	TravelTime int32           `json:"travel_time"`
	Prohibited map[uint16]bool `json:"prohibited"`
}

// Registers the travel state handler onto the gin server, reads are not authenticated.
func StatesHandlers(router *gin.Engine, repo Repository, catalog *world.Catalog, logger log.Logger) {
	router.GET("/api/travel", getStates(repo, catalog, logger))
}

// getStates returns a handler answering the latest travel time and prohibit flags.
// At most one of world_id or datacenter_id narrows the worlds, every visible world is returned otherwise.
func getStates(repo Repository, catalog *world.Catalog, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		worldIDs, ok := filterWorlds(gctx, catalog)
		if !ok {
			return
		}

		var resp statesResponse
		g, ctx := errgroup.WithContext(gctx)
		g.Go(func() (err error) {
			resp.Prohibited, err = repo.ProhibitedByWorld(ctx, logger, worldIDs)
			return err
		})
		g.Go(func() (err error) {
			resp.TravelTime, err = repo.LatestTravelTime(ctx, logger)
			return err
		})
		if err := g.Wait(); err != nil {
			gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
			return
		}
		gctx.JSON(http.StatusOK, resp)
	}
}

// Resolves the query filter into world ids, writing the error response when it can't.
func filterWorlds(gctx *gin.Context, catalog *world.Catalog) ([]uint16, bool) {
	var endpoint entity.Endpoint
	switch {
	case gctx.Query("world_id") != "":
		id, err := strconv.ParseUint(gctx.Query("world_id"), 10, 16)
		if err != nil {
			gctx.JSON(http.StatusBadRequest, errors.BadRequest("world_id must be a number"))
			return nil, false
		}
		endpoint = entity.WorldEndpoint(uint16(id))
	case gctx.Query("datacenter_id") != "":
		id, err := strconv.ParseUint(gctx.Query("datacenter_id"), 10, 16)
		if err != nil {
			gctx.JSON(http.StatusBadRequest, errors.BadRequest("datacenter_id must be a number"))
			return nil, false
		}
		endpoint = entity.DatacenterEndpoint(uint16(id))
	default:
		worlds := catalog.Worlds()
		ids := make([]uint16, 0, len(worlds))
		for _, w := range worlds {
			ids = append(ids, w.ID)
		}
		return ids, true
	}

	ids, ok := catalog.EndpointWorlds(endpoint)
	if !ok {
		gctx.JSON(http.StatusNotFound, errors.NotFound("Unknown "+endpoint.String()))
		return nil, false
	}
	return ids, true
}
