package divination

import (
	"encoding/json"
	"strconv"

	"github.com/liurenlab/liuren/internal/apperror"
)

// baseInfoAt extracts the base-info record at position 0 of the payload's
// data value. The upstream addresses it either as a JSON array or as an
// object keyed by the numeric string "0"; both representations resolve
// through this single accessor.
func baseInfoAt(p *rawPayload) (*rawBaseInfo, error) {
	if p == nil || len(p.Data) == 0 {
		return nil, apperror.NewMalformedResponse("oracle payload missing base info", nil)
	}

	var asArray []rawBaseInfo
	if err := json.Unmarshal(p.Data, &asArray); err == nil {
		if len(asArray) == 0 {
			return nil, apperror.NewMalformedResponse("oracle payload base info is empty", nil)
		}
		return &asArray[0], nil
	}

	var asMap map[string]rawBaseInfo
	if err := json.Unmarshal(p.Data, &asMap); err == nil {
		if base, ok := asMap["0"]; ok {
			return &base, nil
		}
		return nil, apperror.NewMalformedResponse("oracle payload base info missing key 0", nil)
	}

	return nil, apperror.NewMalformedResponse("oracle payload base info has unexpected shape", nil)
}

// mapResult normalizes a raw oracle payload into ResultData. Six palaces
// are always produced: missing array entries degrade to empty-string
// fields, never to a dropped palace. Day/time palace names come from the
// payload's 1-indexed slots when in range, otherwise from the mod-6
// fallback formula.
func mapResult(number int, moment CalendarMoment, shichen int, ganzhi GanZhiFunc, raw *rawPayload) (*ResultData, error) {
	base, err := baseInfoAt(raw)
	if err != nil {
		return nil, err
	}

	palaces := make([]PalaceRecord, len(palaceNames))
	for i := range palaceNames {
		palaces[i] = PalaceRecord{
			Position:         palaceNames[i],
			God:              stringAt(base.Gods, i),
			Relation:         stringAt(base.Relations, i),
			Star:             stringAt(base.Stars, i),
			Branch:           stringAt(base.Branches, i),
			Slot:             i + 1,
			DivinationNumber: string(base.Count),
		}
	}

	data := &ResultData{
		DivinationNumber: strconv.Itoa(number),
		LunarTime:        FormatLunar(ganzhi(moment), number),
		SolarTime:        moment.String(),
		TimePalace:       resolvePalace(raw.TimeGong, shichen),
		DayPalace:        resolvePalace(raw.DayGong, number),
		Palaces:          palaces,
	}

	if raw.Self != nil {
		data.Self = &SelfInfo{
			Branch: string(raw.Self.Branch),
			Trait:  string(raw.Self.Trait),
		}
	}

	return data, nil
}

// resolvePalace returns the canonical name for a payload-resolved palace
// slot, falling back to the derived index when the slot is absent or out
// of range. Fallback rule: the derived value mod 6 is a 0-based index into
// the name list (a double-hour index of 7 falls back to 留连). The same
// formula applies to both the day and the time palace.
func resolvePalace(slot flexInt, derived int) string {
	if slot.Present && slot.Value >= 1 && slot.Value <= 6 {
		return palaceNames[slot.Value-1]
	}
	return palaceNames[derived%6]
}

// stringAt returns ss[i] or "" when the index is out of range.
func stringAt(ss []string, i int) string {
	if i < 0 || i >= len(ss) {
		return ""
	}
	return ss[i]
}
