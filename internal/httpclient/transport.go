package httpclient

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/scntm/scanner/internal/breaker"
	scntmerrors "github.com/scntm/scanner/internal/errors"
	"github.com/scntm/scanner/internal/throttle"
)

// egressTransport is the single http.RoundTripper every outbound request in
// the scanner passes through, whether issued by the Crawler's colly
// collector or a detector's direct HttpClient call: breaker gate, then a
// per-host throttle wait before each attempt, with transport-error retry
// and linear backoff.
type egressTransport struct {
	base       http.RoundTripper
	throttle   *throttle.Throttle
	breaker    *breaker.CircuitBreaker
	maxRetries int
	logger     zerolog.Logger
}

func (t *egressTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := req.URL.Hostname()

	if t.breaker.IsOpen(host) {
		return nil, scntmerrors.NewBreakerOpenError(host)
	}

	bodyBytes, err := drainBody(req)
	if err != nil {
		return nil, scntmerrors.Wrap(err, "reading request body")
	}

	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		t.throttle.Wait(host)

		attemptReq := cloneRequest(req, bodyBytes)
		resp, err := t.base.RoundTrip(attemptReq)
		if err != nil {
			lastErr = err
			t.breaker.RecordFailure(host)
			if attempt < t.maxRetries {
				t.logger.Debug().Str("url", req.URL.String()).Int("attempt", attempt+1).Err(err).Msg("transport error, retrying")
				time.Sleep(time.Duration(attempt+1) * time.Second)
				continue
			}
			break
		}

		// Any HTTP response, 2xx through 5xx, counts as breaker success per
		// the egress contract — only transport/timeout failures count
		// against the breaker.
		t.breaker.RecordSuccess(host)
		return resp, nil
	}

	return nil, scntmerrors.NewNetworkError("request", req.URL.String(), lastErr)
}

func drainBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	return b, err
}

func cloneRequest(req *http.Request, bodyBytes []byte) *http.Request {
	clone := req.Clone(req.Context())
	if bodyBytes != nil {
		clone.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		clone.ContentLength = int64(len(bodyBytes))
	}
	return clone
}
