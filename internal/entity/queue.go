// Structure of login and duty queue notification payloads in Waitingway.

package entity

import (
	"time"

	"github.com/pkg/errors"
)

// Sent by the client when a login queue starts.
type LoginCreate struct {
	CharacterName string `json:"character_name" valid:"required,nospaceonly~character_name:Character name cannot contain only spaces"`
	HomeWorldID   uint16 `json:"home_world_id" valid:"required~home_world_id:Home world is required"`
	WorldID       uint16 `json:"world_id" valid:"required~world_id:World is required"`
	LoginUpdate
}

type LoginUpdate struct {
	Position      uint32    `json:"position" valid:"-"`
	UpdatedAt     time.Time `json:"updated_at" valid:"-"`
	EstimatedTime time.Time `json:"estimated_time" valid:"-"`
}

type LoginDelete struct {
	Successful     bool   `json:"successful" valid:"-"`
	QueueStartSize uint32 `json:"queue_start_size" valid:"-"`
	QueueEndSize   uint32 `json:"queue_end_size" valid:"-"`
	// Seconds spent in queue
	Duration        uint32     `json:"duration" valid:"-"`
	ErrorMessage    *string    `json:"error_message,omitempty" valid:"-"`
	ErrorCode       *int32     `json:"error_code,omitempty" valid:"-"`
	IdentifyTimeout *time.Time `json:"identify_timeout,omitempty" valid:"-"`
}

// Kept inside the login notification token.
type LoginState struct {
	CharacterName string `json:"character_name"`
	HomeWorldID   uint16 `json:"home_world_id"`
	WorldID       uint16 `json:"world_id"`
}

// What the player queued for in duty finder.
type DutyQueue struct {
	CharacterName  string   `json:"character_name" valid:"required,nospaceonly~character_name:Character name cannot contain only spaces"`
	HomeWorldID    uint16   `json:"home_world_id" valid:"required~home_world_id:Home world is required"`
	QueuedJob      uint8    `json:"queued_job" valid:"-"`
	QueuedRoulette *uint8   `json:"queued_roulette,omitempty" valid:"-"`
	QueuedContent  []uint16 `json:"queued_content,omitempty" valid:"-"`
}

// Special WaitTime and Position values reported by the game.
// A Position of 0 is reported while the game is still retrieving info as well.
const (
	WaitTimeOver30Minutes  uint8 = 0
	WaitTimeHidden         uint8 = 255
	PositionAfter50        uint8 = 254
	PositionRetrievingInfo uint8 = 255
)

type FillParam struct {
	Found  uint16 `json:"found"`
	Needed uint16 `json:"needed"`
}

// RecapUpdate is one progress report of a duty queue, $type tells which optional fields are set.
type RecapUpdate struct {
	Timestamp         time.Time  `json:"timestamp" valid:"-"`
	IsReservingServer bool       `json:"is_reserving_server" valid:"-"`
	Type              string     `json:"$type,omitempty" valid:"-"`
	WaitTime          *uint8     `json:"wait_time,omitempty" valid:"-"`
	Position          *uint8     `json:"position,omitempty" valid:"-"`
	Tanks             *FillParam `json:"tanks,omitempty" valid:"-"`
	Healers           *FillParam `json:"healers,omitempty" valid:"-"`
	DPS               *FillParam `json:"dps,omitempty" valid:"-"`
	Players           *FillParam `json:"players,omitempty" valid:"-"`
}

type DutyCreate struct {
	DutyQueue
	Update        RecapUpdate `json:"update" valid:"-"`
	EstimatedTime *time.Time  `json:"estimated_time,omitempty" valid:"-"`
}

// DutyUpdate is either a queue update (Update set) or a queue pop (Timestamp set).
type DutyUpdate struct {
	EstimatedTime       *time.Time   `json:"estimated_time,omitempty" valid:"-"`
	Update              *RecapUpdate `json:"update,omitempty" valid:"-"`
	Timestamp           *time.Time   `json:"timestamp,omitempty" valid:"-"`
	ResultingContent    *uint16      `json:"resulting_content,omitempty" valid:"-"`
	InProgressTimestamp *time.Time   `json:"in_progress_begin_timestamp,omitempty" valid:"-"`
}

// Returns true if the update reports a queue pop.
func (u DutyUpdate) IsPop() bool {
	return u.Update == nil && u.Timestamp != nil
}

type DutyDelete struct {
	PositionStart *uint8 `json:"position_start,omitempty" valid:"-"`
	PositionEnd   *uint8 `json:"position_end,omitempty" valid:"-"`
	// Seconds spent in queue
	Duration         uint32  `json:"duration" valid:"-"`
	ResultingContent *uint16 `json:"resulting_content,omitempty" valid:"-"`
	ErrorMessage     *string `json:"error_message,omitempty" valid:"-"`
	ErrorCode        *uint16 `json:"error_code,omitempty" valid:"-"`
}

// Kept inside the duty notification token.
type DutyState struct {
	StartTime time.Time `json:"start_time"`
	Data      DutyQueue `json:"data"`
}

// Returns an error unless the update is exactly one of a queue update or a pop.
func (u DutyUpdate) Validate() error {
	if (u.Update == nil) == (u.Timestamp == nil) {
		return errors.New("update:Exactly one of update or timestamp is required")
	}
	return nil
}
