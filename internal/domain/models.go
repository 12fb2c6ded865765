package domain

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
)

// Item is a single string returned by the external endpoint.
type Item struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// NewItem derives a stable ID from the item value.
func NewItem(value string) Item {
	sum := sha1.Sum([]byte(value))
	return Item{ID: hex.EncodeToString(sum[:]), Value: value}
}

// NewItems converts fetched strings into items, preserving order.
func NewItems(values []string) []Item {
	items := make([]Item, 0, len(values))
	for _, v := range values {
		items = append(items, NewItem(v))
	}
	return items
}
