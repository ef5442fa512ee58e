package gateway

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
)

// ErrInvalidSignature marks a notification whose signature does not match the
// recomputed digest. The payload is untrusted and must be discarded without
// touching any payment record; callers log it as a security-relevant
// rejection, not as a lookup miss.
var ErrInvalidSignature = errors.New("notification signature mismatch")

// Notification is the untrusted asynchronous callback body. Even after
// validation it is only a pointer — the session state is always re-queried,
// never taken from these fields.
type Notification struct {
	RequestID int64  `json:"requestId"`
	Reference string `json:"reference"`
	Signature string `json:"signature"`
	Status    Status `json:"status"`
}

// ExpectedSignature recomputes the digest the gateway signs notifications
// with: sha1(requestId + status + date + tranKey).
func (n *Notification) ExpectedSignature(tranKey string) string {
	payload := strconv.FormatInt(n.RequestID, 10) + n.Status.Status + n.Status.Date + tranKey
	digest := sha1.Sum([]byte(payload))
	return hex.EncodeToString(digest[:])
}

// IsValid checks the payload signature in constant time.
func (n *Notification) IsValid(tranKey string) bool {
	expected := n.ExpectedSignature(tranKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.Signature)) == 1
}
