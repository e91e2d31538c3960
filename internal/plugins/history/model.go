// Package history manages durable divination history: a single persisted
// list of records behind a load/save blob capability, with human-relative
// time grouping for presentation. Display order is always re-derived
// newest-first; the store itself keeps insertion order.
package history

import (
	"github.com/liurenlab/liuren/internal/plugins/divination"
)

// Record is one saved divination.
type Record struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`

	// Time is the save moment as an ISO timestamp string.
	Time string `json:"time"`

	// Timestamp is the save moment in milliseconds since the epoch.
	// Grouping and ordering derive from it.
	Timestamp int64 `json:"timestamp"`

	// Question is what the querent asked.
	Question string `json:"question"`

	// Result is the divination outcome this record preserves.
	Result *divination.Result `json:"result"`

	// Notes holds free-form annotations added after the fact.
	Notes string `json:"notes,omitempty"`

	// Number is the divination number used for the query.
	Number int `json:"number"`

	Emoji string `json:"emoji,omitempty"`

	// RelativeTime is a display label ("yesterday 14:30") derived on read,
	// never persisted.
	RelativeTime string `json:"relative_time,omitempty"`
}

// Group is a labeled bucket of records for presentation. Ephemeral:
// recomputed on every read, never persisted.
type Group struct {
	Title string   `json:"title"`
	Items []Record `json:"items"`
}

// UpdateRequest is the partial-update input for a record. Nil fields are
// left unchanged.
type UpdateRequest struct {
	Question *string `json:"question"`
	Notes    *string `json:"notes"`
	Emoji    *string `json:"emoji"`
}

// CreateRequest is the input for saving a divination as a record.
type CreateRequest struct {
	Question string             `json:"question"`
	Notes    string             `json:"notes"`
	Number   int                `json:"number"`
	Emoji    string             `json:"emoji"`
	Result   *divination.Result `json:"result"`
}
