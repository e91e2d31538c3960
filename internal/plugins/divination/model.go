// Package divination is the temporal normalization and divination mapping
// engine. It parses free-form query time input into a canonical calendar
// moment, derives the double-hour (shichen) index and the sexagenary
// (GanZhi) stamp, queries the remote six-palace oracle, and normalizes its
// loosely structured payload into a stable typed result.
package divination

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// palaceNames are the six canonical palace names in fixed slot order 1..6.
// Slot assignment is strictly positional; payload content never reorders it.
var palaceNames = [6]string{"大安", "留连", "速喜", "赤口", "小吉", "空亡"}

// PalaceName returns the canonical name for a 1-indexed slot.
func PalaceName(slot int) string {
	return palaceNames[slot-1]
}

// CalendarMoment is a validated point in time. Constructed only via
// ParseMoment (or MomentAt for "now"); immutable once produced.
type CalendarMoment struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// PalaceRecord is one of the six palaces of a divination layout.
type PalaceRecord struct {
	// Position is the canonical name for this slot, independent of
	// payload content.
	Position string `json:"position"`

	// God is the spirit (liushen) attached to this palace.
	God string `json:"god"`

	// Relation is the relation (liuqin).
	Relation string `json:"relation"`

	// Star is the element (wuxing).
	Star string `json:"star"`

	// Branch is the earthly branch (dizhi).
	Branch string `json:"branch"`

	// Slot is the 1-indexed palace position.
	Slot int `json:"slot"`

	// DivinationNumber is the oracle's accumulated-count field.
	DivinationNumber string `json:"divination_number,omitempty"`
}

// SelfInfo describes the querent's own position (zishen) in the layout.
type SelfInfo struct {
	Branch string `json:"branch"`
	Trait  string `json:"trait"`
}

// ResultData is the payload of a successful divination.
type ResultData struct {
	DivinationNumber string         `json:"divination_number"`
	LunarTime        string         `json:"lunar_time"`
	SolarTime        string         `json:"solar_time"`
	TimePalace       string         `json:"time_palace"`
	DayPalace        string         `json:"day_palace"`
	Palaces          []PalaceRecord `json:"palaces"`
	Self             *SelfInfo      `json:"self,omitempty"`
}

// Result is the typed outcome of a divination query. Code 0 means Data is
// non-nil; Code -1 means Data is nil and Message explains why. Remote and
// mapping failures never propagate past the service as errors -- the caller
// always receives a Result.
type Result struct {
	Code    int         `json:"code"`
	Data    *ResultData `json:"data"`
	Message string      `json:"message,omitempty"`
}

// QueryRequest is the presentation-boundary input for a divination query.
// Number is accepted as a JSON string or number; validation happens in the
// service so "abc" and 0 are rejected with a typed error before any
// network call.
type QueryRequest struct {
	Number   StringOrNumber `json:"number"`
	Time     string         `json:"time,omitempty"`
	Question string         `json:"question,omitempty"`
	Emoji    string         `json:"emoji,omitempty"`
}

// StringOrNumber decodes a JSON string or number into its text form.
type StringOrNumber string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringOrNumber) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = StringOrNumber(v)
		return nil
	}
	*s = StringOrNumber(string(b))
	return nil
}

// --- Raw oracle payload ---
//
// The upstream endpoint is duck-typed: scalars arrive as numbers or quoted
// numbers, the base-info record is addressed by array position or by the
// string key "0", and whole responses are sometimes double-encoded as a
// JSON string. All of that tolerance lives here so the mapper works with
// explicit present-vs-absent values.

// rawPayload is the decoded oracle response.
type rawPayload struct {
	// Code, when present and -1, marks an upstream-reported failure with
	// Msg carrying the reason.
	Code *int   `json:"code"`
	Msg  string `json:"msg"`

	// Data holds the base-info record at position 0; kept raw because the
	// upstream emits either an array or an object keyed "0".
	Data json.RawMessage `json:"data"`

	// DayGong and TimeGong are the resolved 1-indexed palace slots.
	DayGong  flexInt `json:"rigong"`
	TimeGong flexInt `json:"shigong"`

	// Self is the optional querent record.
	Self *rawSelf `json:"zishen"`
}

// rawBaseInfo is the record at position 0: four parallel length-6 arrays
// plus the accumulated-count scalar.
type rawBaseInfo struct {
	Gods      []string   `json:"liushen"`
	Relations []string   `json:"liuqin"`
	Stars     []string   `json:"wuxing"`
	Branches  []string   `json:"dizhi"`
	Count     flexString `json:"jishu"`
}

// rawSelf is the optional zishen record.
type rawSelf struct {
	Branch flexString `json:"dizhi"`
	Trait  flexString `json:"texing"`
}

// flexInt decodes a JSON number or numeric string. Anything else (null,
// garbage, floats) leaves it absent -- out-of-shape palace indices fall back
// to a formula instead of failing the whole mapping.
type flexInt struct {
	Value   int
	Present bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	f.Value = n
	f.Present = true
	return nil
}

// flexString decodes a JSON string or number into its text form. null
// decodes to "".
type flexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	*f = flexString(string(b))
	return nil
}
