// Travel status embeds of Waitingway.

package discord

import (
	"Waitingway/internal/entity"
	"sort"
	"time"
)

// Returns the DC travel embed for name, a single world is rendered as a description, many as fields.
func TravelEmbed(name string, worlds []entity.WorldTravel, now time.Time) Embed {
	prohibited := 0
	for _, w := range worlds {
		if w.Prohibited {
			prohibited++
		}
	}
	color := ColorDCMixed
	switch prohibited {
	case 0:
		color = ColorDCAllowed
	case len(worlds):
		color = ColorDCProhibited
	}

	embed := Embed{Title: "DC Travel for " + name, Color: color}
	if len(worlds) == 1 {
		embed.Description = travelStatus(worlds[0].Prohibited)
	} else {
		sorted := append([]entity.WorldTravel(nil), worlds...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].World.ID < sorted[j].World.ID })
		for _, w := range sorted {
			embed.Fields = append(embed.Fields, EmbedField{Name: w.World.Name, Value: travelStatus(w.Prohibited), Inline: true})
		}
	}
	return embed.WithFooter("Last updated", now)
}

func travelStatus(prohibited bool) string {
	if prohibited {
		return "❌ Prohibited"
	}
	return "✅ Allowed"
}

// Returns the embed sent to a subscriber once name opens for travel.
func PublishEmbed(name string, worlds []entity.WorldTravel, now time.Time) Embed {
	embed := TravelEmbed(name, worlds, now)
	embed.Title = name + " is now available for DC Travel"
	embed.Color = ColorSuccess
	return embed
}
