// Structure of the message references embedded in notification tokens.

package entity

// MessageRef points at one message created in a recipient's DM channel.
// Ids are serialized as strings, discord snowflakes overflow JSON numbers in most clients.
type MessageRef struct {
	Message uint64 `json:"message,string"`
	Channel uint64 `json:"channel,string"`
}
