// Structure of the World reference data in Waitingway.

package entity

// Loaded once from the worlds table.
type World struct {
	ID             uint16 `json:"world_id"`
	Name           string `json:"world_name"`
	DatacenterID   uint16 `json:"datacenter_id"`
	DatacenterName string `json:"datacenter_name"`
	Region         string `json:"region_abbreviation"`
	Hidden         bool   `json:"hidden"`
}

type Datacenter struct {
	ID     uint16 `json:"datacenter_id"`
	Name   string `json:"datacenter_name"`
	Region string `json:"region_abbreviation"`
	// Sorted by world id
	Worlds []World `json:"worlds"`
}

// TravelState is one row of travel_states, flags are 0 or 1 as reported by the lobby.
type TravelState struct {
	WorldID  uint16 `json:"world_id"`
	Travel   uint8  `json:"travel"`
	Accept   uint8  `json:"accept"`
	Prohibit uint8  `json:"prohibit"`
}

// Returns true if the world currently accepts travellers.
func (s TravelState) Allowed() bool {
	return s.Prohibit == 0
}
