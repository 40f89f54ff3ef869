// Structure of the lobby travel feed printed by the stasis connector.

package entity

// One JSON line of connector output.
type TravelResponse struct {
	Error  *string      `json:"error"`
	Result TravelResult `json:"result"`
}

type TravelResult struct {
	Code    string      `json:"return_code"`
	Status  string      `json:"return_status"`
	ErrCode string      `json:"return_errcode"`
	Data    *TravelData `json:"data"`
}

type TravelData struct {
	HomeDC             uint8              `json:"homeDC"`
	HomeWorldID        uint16             `json:"homeWorldId"`
	Datacenters        []TravelDatacenter `json:"worldInfos"`
	AverageElapsedTime int32              `json:"averageElapsedTime"`
}

type TravelDatacenter struct {
	DC     uint8             `json:"dc"`
	Worlds []TravelWorldInfo `json:"worldIds"`
}

type TravelWorldInfo struct {
	ID       uint16 `json:"id"`
	Travel   uint8  `json:"travelFlag"`
	Accept   uint8  `json:"acceptFlag"`
	Prohibit uint8  `json:"prohibitFlag"`
}

// Converts the feed flags into a travel_states row.
func (w TravelWorldInfo) State() TravelState {
	return TravelState{WorldID: w.ID, Travel: w.Travel, Accept: w.Accept, Prohibit: w.Prohibit}
}
