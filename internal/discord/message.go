// Structure of discord messages and embeds sent by Waitingway.

package discord

import "time"

// Embed colors.
const (
	ColorSuccess      = 0x43B581
	ColorError        = 0xF04747
	ColorInQueue      = 0x6FC6E2
	ColorQueuePop     = 0xF1C40F
	ColorDCAllowed    = ColorSuccess
	ColorDCProhibited = ColorError
	ColorDCMixed      = 0xFAA61A
)

type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds"`
}

// Wraps a single embed into a Message.
func EmbedMessage(e Embed) Message {
	return Message{Embeds: []Embed{e}}
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type EmbedAuthor struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url,omitempty"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Sets the footer text and the timestamp shown next to it.
func (e Embed) WithFooter(text string, at time.Time) Embed {
	e.Footer = &EmbedFooter{Text: text}
	e.Timestamp = at.UTC().Format(time.RFC3339)
	return e
}
