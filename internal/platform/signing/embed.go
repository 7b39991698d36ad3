// Package signing issues short-lived HMAC tokens that authorise the
// third-party player widget to start playback for a title on behalf of
// a user. The widget echoes the token back to the edge, which verifies it
// with the same secret.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"
)

type Signer struct {
	Secret []byte
}

// EmbedToken is the signed grant handed to the player widget.
type EmbedToken struct {
	TitleID string `json:"title_id"`
	UserID  string `json:"user_id"`
	Exp     int64  `json:"exp"`
	Sig     string `json:"sig"`
}

func New(secret string) *Signer {
	return &Signer{Secret: []byte(secret)}
}

func (s *Signer) Sign(titleID, userID string, exp time.Time) EmbedToken {
	return EmbedToken{
		TitleID: titleID,
		UserID:  userID,
		Exp:     exp.Unix(),
		Sig:     s.signValue(titleID, userID, exp.Unix()),
	}
}

func (s *Signer) Verify(tok EmbedToken) bool {
	if time.Now().Unix() > tok.Exp {
		return false
	}
	return hmac.Equal([]byte(tok.Sig), []byte(s.signValue(tok.TitleID, tok.UserID, tok.Exp)))
}

func (s *Signer) signValue(titleID, userID string, exp int64) string {
	mac := hmac.New(sha256.New, s.Secret)
	mac.Write([]byte(titleID))
	mac.Write([]byte("|"))
	mac.Write([]byte(userID))
	mac.Write([]byte("|"))
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
