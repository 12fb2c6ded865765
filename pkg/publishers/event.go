package publishers

import (
	"time"

	"github.com/codigomaromba/item-fetcher/internal/domain"
)

// Event is the JSON payload delivered to every sink.
type Event struct {
	ItemID      string    `json:"item_id"`
	Value       string    `json:"value"`
	Source      string    `json:"source"`
	CollectedAt time.Time `json:"collected_at"`
}

// NewEvent builds an Event for an item fetched from source.
func NewEvent(source string, item domain.Item) Event {
	return Event{
		ItemID:      item.ID,
		Value:       item.Value,
		Source:      source,
		CollectedAt: time.Now().UTC(),
	}
}
