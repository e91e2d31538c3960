package divination

import (
	"fmt"

	"github.com/6tail/lunar-go/calendar"
)

// GanZhi holds the stem-branch pair for each calendar unit of a moment.
type GanZhi struct {
	Year  string
	Month string
	Day   string
	Hour  string
}

// GanZhiFunc converts a CalendarMoment into its four stem-branch pairs.
// The production implementation is LunarGanZhi; tests inject a fixed one
// so they don't depend on the conversion tables.
type GanZhiFunc func(CalendarMoment) GanZhi

// LunarGanZhi derives the sexagenary pairs through the lunar calendar
// conversion from lunar-go.
func LunarGanZhi(m CalendarMoment) GanZhi {
	lunar := calendar.NewSolar(m.Year, m.Month, m.Day, m.Hour, m.Minute, 0).GetLunar()
	return GanZhi{
		Year:  lunar.GetYearInGanZhi(),
		Month: lunar.GetMonthInGanZhi(),
		Day:   lunar.GetDayInGanZhi(),
		Hour:  lunar.GetTimeInGanZhi(),
	}
}

// FormatLunar composes the lunar display line: the four stem-branch pairs
// suffixed with the chosen divination number.
func FormatLunar(gz GanZhi, number int) string {
	return fmt.Sprintf("%s年 %s月 %s日 %s时 占数%d", gz.Year, gz.Month, gz.Day, gz.Hour, number)
}
