package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/snapmix/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	rank  int
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return fmt.Sprintf("%d. %s", i.rank, i.track.Name) }
func (i trackItem) Description() string {
	if len(i.track.Artists) == 0 {
		return i.track.ID
	}
	return i.track.ArtistLine()
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{rank: i + 1, track: t}
	}
	return items
}
