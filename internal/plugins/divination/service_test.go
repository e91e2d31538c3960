package divination

import (
	"context"
	"testing"
	"time"

	"github.com/liurenlab/liuren/internal/apperror"
)

// --- Mock Oracle ---

// mockOracle implements Oracle for testing.
type mockOracle struct {
	fetchFn func(ctx context.Context, ri, shi string) (*rawPayload, error)
	calls   int
}

func (m *mockOracle) Fetch(ctx context.Context, ri, shi string) (*rawPayload, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, ri, shi)
	}
	return &rawPayload{Data: []byte(`[{}]`)}, nil
}

// newTestService builds a service with a fixed clock and deterministic
// GanZhi conversion.
func newTestService(oracle Oracle, fallbackToNow bool) *service {
	return &service{
		oracle:        oracle,
		ganzhi:        fixedGanZhi,
		fallbackToNow: fallbackToNow,
		now:           func() time.Time { return testNow },
	}
}

// --- Divine Tests ---

func TestDivine_Success(t *testing.T) {
	var gotRi, gotShi string
	oracle := &mockOracle{
		fetchFn: func(ctx context.Context, ri, shi string) (*rawPayload, error) {
			gotRi, gotShi = ri, shi
			return payloadFromJSON(t, fullPayload), nil
		},
	}
	svc := newTestService(oracle, false)

	result, err := svc.Divine(context.Background(), "23", "2024-06-01 14:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 14:30 falls in the 13:00-15:00 window: double-hour index 8.
	if gotRi != "23" || gotShi != "8" {
		t.Errorf("request params ri=%q shi=%q, want ri=23 shi=8", gotRi, gotShi)
	}
	if result.Code != 0 || result.Data == nil {
		t.Fatalf("result = %+v, want code 0 with data", result)
	}
	if result.Data.DivinationNumber != "23" {
		t.Errorf("divination number = %q", result.Data.DivinationNumber)
	}
	if len(result.Data.Palaces) != 6 {
		t.Errorf("expected 6 palaces, got %d", len(result.Data.Palaces))
	}
}

func TestDivine_InvalidNumberBeforeNetwork(t *testing.T) {
	for _, number := range []string{"0", "101", "abc"} {
		oracle := &mockOracle{}
		svc := newTestService(oracle, false)

		_, err := svc.Divine(context.Background(), number, "2024-06-01 14:30")
		assertAppError(t, err, "invalid_divination_number")
		if oracle.calls != 0 {
			t.Errorf("number %q: oracle called %d times before validation", number, oracle.calls)
		}
	}
}

func TestDivine_InvalidTimeFailPolicy(t *testing.T) {
	oracle := &mockOracle{}
	svc := newTestService(oracle, false)

	_, err := svc.Divine(context.Background(), "23", "not a time")
	assertAppError(t, err, "invalid_datetime")
	if oracle.calls != 0 {
		t.Errorf("oracle called %d times before validation", oracle.calls)
	}
}

func TestDivine_InvalidTimeFallbackPolicy(t *testing.T) {
	var gotShi string
	oracle := &mockOracle{
		fetchFn: func(ctx context.Context, ri, shi string) (*rawPayload, error) {
			gotShi = shi
			return payloadFromJSON(t, `{"data": [{}]}`), nil
		},
	}
	svc := newTestService(oracle, true)

	result, err := svc.Divine(context.Background(), "23", "not a time")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Code != 0 {
		t.Fatalf("result code = %d, want 0", result.Code)
	}
	// testNow is 10:20: the 9:00-11:00 window, index 6.
	if gotShi != "6" {
		t.Errorf("shi = %q, want 6 (derived from substituted now)", gotShi)
	}
	// The substituted moment is what gets displayed.
	if result.Data.SolarTime != MomentAt(testNow).String() {
		t.Errorf("solar time = %q, want %q", result.Data.SolarTime, MomentAt(testNow).String())
	}
}

func TestDivine_RemoteFailureBecomesResult(t *testing.T) {
	oracle := &mockOracle{
		fetchFn: func(ctx context.Context, ri, shi string) (*rawPayload, error) {
			return nil, apperror.NewRemoteUnavailable("oracle request failed", nil)
		},
	}
	svc := newTestService(oracle, false)

	result, err := svc.Divine(context.Background(), "23", "2024-06-01 14:30")
	if err != nil {
		t.Fatalf("remote failure must not surface as an error, got %v", err)
	}
	if result.Code != -1 || result.Data != nil {
		t.Fatalf("result = %+v, want code -1 with nil data", result)
	}
	if result.Message == "" {
		t.Error("expected a non-empty message explaining the failure")
	}
}

func TestDivine_UpstreamReportedFailure(t *testing.T) {
	code := -1
	oracle := &mockOracle{
		fetchFn: func(ctx context.Context, ri, shi string) (*rawPayload, error) {
			return &rawPayload{Code: &code, Msg: "查询失败"}, nil
		},
	}
	svc := newTestService(oracle, false)

	result, err := svc.Divine(context.Background(), "23", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Code != -1 || result.Message != "查询失败" {
		t.Errorf("result = %+v, want code -1 with upstream message", result)
	}
}

func TestDivine_MalformedPayloadBecomesResult(t *testing.T) {
	oracle := &mockOracle{
		fetchFn: func(ctx context.Context, ri, shi string) (*rawPayload, error) {
			return &rawPayload{}, nil // no base info
		},
	}
	svc := newTestService(oracle, false)

	result, err := svc.Divine(context.Background(), "23", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Code != -1 || result.Data != nil || result.Message == "" {
		t.Errorf("result = %+v, want code -1 with message", result)
	}
}
