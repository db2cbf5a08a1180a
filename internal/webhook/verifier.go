package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance bounds how far a signature timestamp may drift from
// the relay clock before the delivery is rejected as a replay.
const DefaultTolerance = 5 * time.Minute

// Verification failure reasons. All of them map to an authentication
// error at the handler boundary; they are distinguished for logs and
// metrics only.
var (
	ErrMissingHeader     = errors.New("signature header missing")
	ErrMalformedHeader   = errors.New("signature header malformed")
	ErrTimestampExpired  = errors.New("signature timestamp outside tolerance")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// VerifierConfig configures a Verifier. Now is overridable for tests.
type VerifierConfig struct {
	Secret    string
	Tolerance time.Duration
	Now       func() time.Time
}

// Verifier checks provider signatures over raw webhook bodies. It holds
// no per-request state: verifying the same (body, header) pair twice
// yields the same result.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier constructs a Verifier from cfg, applying defaults for the
// tolerance and clock.
func NewVerifier(cfg VerifierConfig) *Verifier {
	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Verifier{
		secret:    []byte(cfg.Secret),
		tolerance: tolerance,
		now:       now,
	}
}

// Verify checks sigHeader against the exact raw body bytes. The header
// carries comma-separated pairs in the form "t=<unix>,v1=<hex>"; the
// expected digest is HMAC-SHA256(secret, "<t>.<body>"). Multiple v1
// entries are accepted so the provider can rotate signing keys; any
// one match passes. The comparison is constant-time.
func (v *Verifier) Verify(body []byte, sigHeader string) error {
	if strings.TrimSpace(sigHeader) == "" {
		return ErrMissingHeader
	}

	timestamp, candidates, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return err
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > v.tolerance || age < -v.tolerance {
		return ErrTimestampExpired
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		if hmac.Equal(expected, candidate) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

// Sign produces a signature header for body at the given time. Used by
// tests and by provider simulators; the relay never sends signatures.
func (v *Verifier) Sign(body []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (int64, [][]byte, error) {
	var (
		timestamp  int64
		haveTS     bool
		candidates [][]byte
	)

	for _, pair := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			return 0, nil, ErrMalformedHeader
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrMalformedHeader
			}
			timestamp = ts
			haveTS = true
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				return 0, nil, ErrMalformedHeader
			}
			candidates = append(candidates, sig)
		default:
			// Unknown scheme versions are skipped, not rejected.
		}
	}

	if !haveTS || len(candidates) == 0 {
		return 0, nil, ErrMalformedHeader
	}
	return timestamp, candidates, nil
}

// FailureReason returns the metrics label for a verification error.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingHeader):
		return "missing_header"
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, ErrTimestampExpired):
		return "timestamp_expired"
	case errors.Is(err, ErrSignatureMismatch):
		return "signature_mismatch"
	default:
		return "unknown"
	}
}
