package divination

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/liurenlab/liuren/internal/apperror"
)

// maxOracleBody bounds how much of the upstream response is read.
const maxOracleBody = 1 << 20

// Oracle fetches the raw six-palace layout for a divination number (ri)
// and double-hour index (shi), both passed as decimal strings.
type Oracle interface {
	Fetch(ctx context.Context, ri, shi string) (*rawPayload, error)
}

// httpOracle is the production Oracle over HTTP.
type httpOracle struct {
	endpoint string
	client   *http.Client
}

// NewHTTPOracle creates an Oracle that queries the given endpoint with the
// ri/shi query parameters. Calls past the timeout are reported as
// remote_unavailable.
func NewHTTPOracle(endpoint string, timeout time.Duration) Oracle {
	return &httpOracle{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Fetch performs the oracle lookup. Transport failures, timeouts, and
// non-2xx statuses map to remote_unavailable; undecodable bodies map to
// malformed_response.
func (o *httpOracle) Fetch(ctx context.Context, ri, shi string) (*rawPayload, error) {
	u, err := url.Parse(o.endpoint)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("parsing oracle URL: %w", err))
	}
	q := u.Query()
	q.Set("ri", ri)
	q.Set("shi", shi)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("building oracle request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, apperror.NewRemoteUnavailable("oracle request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperror.NewRemoteUnavailable(
			fmt.Sprintf("oracle returned status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxOracleBody))
	if err != nil {
		return nil, apperror.NewRemoteUnavailable("reading oracle response", err)
	}

	return decodePayload(body)
}

// decodePayload decodes an oracle response body. The upstream sometimes
// returns the JSON object directly and sometimes a JSON-encoded string
// containing it; both are accepted via a secondary parse.
func decodePayload(body []byte) (*rawPayload, error) {
	var p rawPayload
	if err := json.Unmarshal(body, &p); err == nil {
		return &p, nil
	}

	var wrapped string
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, apperror.NewMalformedResponse("oracle response is not valid JSON", err)
	}
	if err := json.Unmarshal([]byte(wrapped), &p); err != nil {
		return nil, apperror.NewMalformedResponse("oracle response string is not valid JSON", err)
	}
	return &p, nil
}
