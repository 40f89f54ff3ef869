// Catalog of worlds and datacenters, loaded once at startup and injected where needed.

package world

import (
	"Waitingway/internal/entity"
	"Waitingway/pkg/log"
	"context"
	"sort"

	"github.com/pkg/errors"
)

// Catalog is read-only after construction, safe for concurrent use.
type Catalog struct {
	worlds      map[uint16]entity.World
	datacenters map[uint16]entity.Datacenter
	// Visible worlds sorted by id
	visible []entity.World
}

// Loads the Catalog through repo, an empty worlds table is an error.
func Load(ctx context.Context, logger log.Logger, repo Repository) (*Catalog, error) {
	worlds, err := repo.GetWorlds(ctx, logger)
	if err != nil {
		return nil, err
	}
	if len(worlds) == 0 {
		return nil, errors.New("worlds table is empty")
	}
	c := NewCatalog(worlds)
	logger.Info().Int("worlds", len(c.worlds)).Int("datacenters", len(c.datacenters)).Msg("World catalog loaded")
	return c, nil
}

// Builds a Catalog from worlds in any order.
func NewCatalog(worlds []entity.World) *Catalog {
	c := &Catalog{
		worlds:      make(map[uint16]entity.World, len(worlds)),
		datacenters: make(map[uint16]entity.Datacenter),
	}
	sorted := append([]entity.World(nil), worlds...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, w := range sorted {
		c.worlds[w.ID] = w
		if w.Hidden {
			continue
		}
		c.visible = append(c.visible, w)
		dc, ok := c.datacenters[w.DatacenterID]
		if !ok {
			dc = entity.Datacenter{ID: w.DatacenterID, Name: w.DatacenterName, Region: w.Region}
		}
		dc.Worlds = append(dc.Worlds, w)
		c.datacenters[w.DatacenterID] = dc
	}
	return c
}

func (c *Catalog) World(id uint16) (entity.World, bool) {
	w, ok := c.worlds[id]
	return w, ok
}

func (c *Catalog) Datacenter(id uint16) (entity.Datacenter, bool) {
	dc, ok := c.datacenters[id]
	return dc, ok
}

// Returns every visible world sorted by id.
func (c *Catalog) Worlds() []entity.World {
	return c.visible
}

// Returns the world ids an endpoint covers, false if the endpoint is unknown.
func (c *Catalog) EndpointWorlds(e entity.Endpoint) ([]uint16, bool) {
	switch e.Kind {
	case entity.EndpointWorld:
		w, ok := c.worlds[e.ID]
		if !ok || w.Hidden {
			return nil, false
		}
		return []uint16{w.ID}, true
	case entity.EndpointDatacenter:
		dc, ok := c.datacenters[e.ID]
		if !ok {
			return nil, false
		}
		ids := make([]uint16, 0, len(dc.Worlds))
		for _, w := range dc.Worlds {
			ids = append(ids, w.ID)
		}
		return ids, true
	}
	return nil, false
}
