package gateway

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// Auth is the authentication block merged into every outbound call. The
// digest binds a single-use nonce and a timestamp seed to the shared tranKey,
// so a captured block cannot be replayed.
type Auth struct {
	Login   string `json:"login"`
	TranKey string `json:"tranKey"`
	Nonce   string `json:"nonce"`
	Seed    string `json:"seed"`
}

// newAuth derives the block from raw nonce bytes and a seed instant:
// tranKey = base64(sha256(nonce + seed + secret)), nonce sent base64-encoded.
func newAuth(login, secret string, nonce []byte, seededAt time.Time) *Auth {
	seed := seededAt.Format(time.RFC3339)
	digest := sha256.Sum256(append(append(append([]byte{}, nonce...), seed...), secret...))
	return &Auth{
		Login:   login,
		TranKey: base64.StdEncoding.EncodeToString(digest[:]),
		Nonce:   base64.StdEncoding.EncodeToString(nonce),
		Seed:    seed,
	}
}

// freshAuth generates the block with a random nonce and the current time.
func freshAuth(login, secret string) (*Auth, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate auth nonce: %w", err)
	}
	return newAuth(login, secret, nonce, time.Now()), nil
}
