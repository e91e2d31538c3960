package divination

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/liurenlab/liuren/internal/apperror"
)

// Service is the divination query engine.
type Service interface {
	// Divine runs one query: validate inputs, derive temporal coordinates,
	// call the oracle, and map the payload. Validation failures return an
	// error; remote and mapping failures return a Result with Code -1.
	Divine(ctx context.Context, numberText, timeText string) (*Result, error)
}

// service implements Service.
type service struct {
	oracle        Oracle
	ganzhi        GanZhiFunc
	fallbackToNow bool
	now           func() time.Time
}

// NewService creates the divination service. fallbackToNow selects the
// configured policy for invalid time input: substitute the current time
// instead of failing.
func NewService(oracle Oracle, fallbackToNow bool) Service {
	return &service{
		oracle:        oracle,
		ganzhi:        LunarGanZhi,
		fallbackToNow: fallbackToNow,
		now:           time.Now,
	}
}

// Divine implements Service.
func (s *service) Divine(ctx context.Context, numberText, timeText string) (*Result, error) {
	number, err := ParseNumber(numberText)
	if err != nil {
		return nil, err
	}

	moment, err := s.moment(timeText)
	if err != nil {
		return nil, err
	}
	shichen := DoubleHour(moment.Hour)

	data, err := s.query(ctx, number, moment, shichen)
	if err != nil {
		// Boundary conversion: the caller always gets a typed result, never
		// a remote or mapping error.
		slog.Warn("divination query failed",
			slog.Int("number", number),
			slog.Int("shichen", shichen),
			slog.Any("error", err),
		)
		return &Result{Code: -1, Message: apperror.SafeMessage(err)}, nil
	}

	return &Result{Code: 0, Data: data}, nil
}

// moment parses the query time text under the configured policy.
func (s *service) moment(timeText string) (CalendarMoment, error) {
	now := s.now()
	m, err := ParseMoment(timeText, now)
	if err != nil {
		if s.fallbackToNow {
			return MomentAt(now), nil
		}
		return CalendarMoment{}, err
	}
	return m, nil
}

// query builds the request parameters, calls the oracle, and maps the
// payload.
func (s *service) query(ctx context.Context, number int, moment CalendarMoment, shichen int) (*ResultData, error) {
	ri := strconv.Itoa(number)
	shi := strconv.Itoa(shichen)

	raw, err := s.oracle.Fetch(ctx, ri, shi)
	if err != nil {
		return nil, err
	}

	// An upstream-reported failure carries its own message.
	if raw.Code != nil && *raw.Code == -1 {
		msg := strings.TrimSpace(raw.Msg)
		if msg == "" {
			msg = "oracle reported a failure"
		}
		return nil, apperror.NewRemoteUnavailable(msg, nil)
	}

	return mapResult(number, moment, shichen, s.ganzhi, raw)
}
