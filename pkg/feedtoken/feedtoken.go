// Package feedtoken signs calendar subscription links. Calendar clients poll the iCalendar
// feed without an Authorization header, so the link itself carries a signed grant.
package feedtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformed = errors.New("feedtoken: malformed token")
	ErrSignature = errors.New("feedtoken: invalid signature")
	ErrExpired   = errors.New("feedtoken: token expired")
)

// Grant is what a subscription link allows: reading the feed of Site on behalf of UserID.
type Grant struct {
	Site      string
	UserID    string
	ExpiresAt time.Time
}

// Signer issues and verifies subscription tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner constructs a signer. A non-positive ttl defaults to 180 days.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 180 * 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a token for site and userID.
func (s *Signer) Issue(site, userID string) (string, time.Time, error) {
	if site == "" || userID == "" {
		return "", time.Time{}, fmt.Errorf("site and user required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	payload := encode(site) + "." + encode(userID) + "." + strconv.FormatInt(expiresAt.Unix(), 10)
	return payload + "." + s.sign(payload), expiresAt, nil
}

// Verify checks the signature and expiry of token.
func (s *Signer) Verify(token string) (Grant, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return Grant{}, ErrMalformed
	}
	payload := strings.Join(parts[:3], ".")
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[3])) {
		return Grant{}, ErrSignature
	}

	site, err := decode(parts[0])
	if err != nil {
		return Grant{}, ErrMalformed
	}
	userID, err := decode(parts[1])
	if err != nil {
		return Grant{}, ErrMalformed
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Grant{}, ErrMalformed
	}

	grant := Grant{Site: site, UserID: userID, ExpiresAt: time.Unix(exp, 0)}
	if s.now().After(grant.ExpiresAt) {
		return grant, ErrExpired
	}
	return grant, nil
}

func (s *Signer) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func encode(v string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(v))
}

func decode(v string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(v)
	return string(raw), err
}
