// Parsing of connector output into a per pass merge map.

package travel

import (
	"Waitingway/internal/entity"
	"Waitingway/pkg/log"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// mergeMap accumulates world states of one refresh pass, the first observation of a world wins.
type mergeMap struct {
	states map[uint16]entity.TravelState
	// Average travel time of the last data line, nil when no line carried data
	travelTime *int32
	logger     log.Logger
}

func newMergeMap(logger log.Logger) *mergeMap {
	return &mergeMap{states: make(map[uint16]entity.TravelState), logger: logger}
}

// Inserts s unless its world was already observed, a differing observation is logged and dropped.
func (m *mergeMap) add(s entity.TravelState, homeWorldID uint16) {
	old, ok := m.states[s.WorldID]
	if !ok {
		m.states[s.WorldID] = s
		return
	}
	if old != s {
		m.logger.Error().
			Uint16("world", s.WorldID).
			Uint16("home_world", homeWorldID).
			Interface("kept", old).
			Interface("dropped", s).
			Msg("World changed during refresh, keeping first observation")
	}
}

// Returns the merged states sorted by world id.
func (m *mergeMap) sorted() []entity.TravelState {
	out := make([]entity.TravelState, 0, len(m.states))
	for _, s := range m.states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorldID < out[j].WorldID })
	return out
}

// Returns the ids of worlds with travel prohibited, sorted.
func (m *mergeMap) prohibited() []uint16 {
	var ids []uint16
	for _, s := range m.sorted() {
		if !s.Allowed() {
			ids = append(ids, s.WorldID)
		}
	}
	return ids
}

// Diagnostic line prefixes printed by the connector.
var levelPrefixes = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fail":    zerolog.ErrorLevel,
}

// Splits a "[LEVEL] message" or "level: message" line, false if the line carries no known level.
func parseLevelLine(line string) (zerolog.Level, string, bool) {
	if rest, ok := strings.CutPrefix(line, "["); ok {
		prefix, msg, ok := strings.Cut(rest, "]")
		if !ok {
			return zerolog.NoLevel, "", false
		}
		level, ok := levelPrefixes[strings.ToLower(strings.TrimSpace(prefix))]
		if !ok {
			return zerolog.NoLevel, "", false
		}
		return level, strings.TrimSpace(strings.TrimPrefix(msg, ":")), true
	}

	prefix, msg, ok := strings.Cut(line, ":")
	if !ok {
		return zerolog.NoLevel, "", false
	}
	level, ok := levelPrefixes[strings.ToLower(strings.TrimSpace(prefix))]
	if !ok {
		return zerolog.NoLevel, "", false
	}
	return level, strings.TrimSpace(msg), true
}

// Helper logging a connector diagnostic at its own level.
func logConnectorLine(logger log.Logger, level zerolog.Level, msg string) {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		logger.Debug().Str("source", "connector").Msg(msg)
	case zerolog.WarnLevel:
		logger.Warn().Str("source", "connector").Msg(msg)
	case zerolog.ErrorLevel:
		logger.Error().Str("source", "connector").Msg(msg)
	default:
		logger.Info().Str("source", "connector").Msg(msg)
	}
}

// Decodes one data line of the feed.
func decodeResponse(line string) (entity.TravelResponse, error) {
	var resp entity.TravelResponse
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return resp, errors.Wrap(err, "malformed feed line")
	}
	return resp, nil
}

// Merges one decoded response, catalog supplies the worlds of an all prohibited response.
func (m *mergeMap) merge(resp entity.TravelResponse, prohibitedErrCode string, worlds []entity.World) error {
	result := resp.Result
	if resp.Error != nil {
		if prohibitedErrCode != "" && result.ErrCode == prohibitedErrCode {
			m.logger.Warn().Str("errcode", result.ErrCode).Msg("Lobby reports travel prohibited everywhere")
			for _, w := range worlds {
				m.add(entity.TravelState{WorldID: w.ID, Prohibit: 1}, 0)
			}
			return nil
		}
		return errors.Errorf("Response error: %s - %s; %s (%s)", *resp.Error, result.Code, result.ErrCode, result.Status)
	}
	if result.Code != "OK" {
		return errors.Errorf("Response code: %s; %s (%s)", result.Code, result.ErrCode, result.Status)
	}
	if result.Data == nil {
		return errors.Errorf("No data: %s; %s (%s)", result.Code, result.ErrCode, result.Status)
	}
	for _, dc := range result.Data.Datacenters {
		for _, w := range dc.Worlds {
			m.add(w.State(), result.Data.HomeWorldID)
		}
	}
	travelTime := result.Data.AverageElapsedTime
	m.travelTime = &travelTime
	return nil
}
