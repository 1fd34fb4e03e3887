package orchestrator

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Signing headers expected by the orchestrator
const (
	HeaderKeyID     = "X-Astra-Key-Id"
	HeaderTimestamp = "X-Astra-Timestamp"
	HeaderSignature = "X-Astra-Signature"
)

// Signer produces HMAC-SHA256 request signatures over
// method + "\n" + path + "\n" + timestamp + "\n" + body
type Signer struct {
	keyID  string
	secret []byte
}

// NewSigner creates a request signer for the given key pair
func NewSigner(keyID, secret string) *Signer {
	return &Signer{keyID: keyID, secret: []byte(secret)}
}

// Signature computes the hex-encoded signature for one request
func (s *Signer) Signature(method, path, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%s\n%s\n", method, path, timestamp)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign stamps the signing headers onto an outgoing request. The body must
// match what the request will actually send.
func (s *Signer) Sign(req *http.Request, body []byte) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set(HeaderKeyID, s.keyID)
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderSignature, s.Signature(req.Method, req.URL.Path, timestamp, body))
}

// Verify checks an incoming signature against the expected value, within the
// allowed clock skew. Used by tests and the webhook sink.
func (s *Signer) Verify(method, path, timestamp, signature string, body []byte, maxSkew time.Duration) bool {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if skew := time.Since(time.Unix(ts, 0)); skew > maxSkew || skew < -maxSkew {
		return false
	}
	expected := s.Signature(method, path, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
