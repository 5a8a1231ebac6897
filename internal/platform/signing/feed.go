// Package signing issues HMAC-signed personal calendar feed URLs. Feed
// readers (calendar apps) cannot send Authorization headers, so the link
// itself carries the proof of identity.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Signer struct {
	Secret []byte
}

type SignedFeed struct {
	UserID string
	Exp    int64
	Sig    string
}

func New(secret string) *Signer {
	return &Signer{Secret: []byte(secret)}
}

// Sign produces a feed grant for userID valid until exp.
func (s *Signer) Sign(userID string, exp time.Time) SignedFeed {
	return SignedFeed{
		UserID: userID,
		Exp:    exp.Unix(),
		Sig:    s.signValue(userID, exp.Unix()),
	}
}

// Verify checks the signature and expiry for userID.
func (s *Signer) Verify(userID string, exp int64, sig string) bool {
	if time.Now().Unix() > exp {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(s.signValue(userID, exp)))
}

func (s *Signer) signValue(userID string, exp int64) string {
	mac := hmac.New(sha256.New, s.Secret)
	mac.Write([]byte(userID))
	mac.Write([]byte("|"))
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// FeedURL renders the signed calendar URL under base
// (e.g. https://portal.example.edu -> /v1/users/{id}/calendar.ics?exp=..&sig=..).
func FeedURL(base string, feed SignedFeed) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/users/" + url.PathEscape(feed.UserID) + "/calendar.ics"
	q := u.Query()
	q.Set("exp", strconv.FormatInt(feed.Exp, 10))
	q.Set("sig", feed.Sig)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExtractFeed pulls exp and sig from a feed request query.
func ExtractFeed(query url.Values) (int64, string, error) {
	expStr := strings.TrimSpace(query.Get("exp"))
	sig := strings.TrimSpace(query.Get("sig"))
	if expStr == "" || sig == "" {
		return 0, "", fmt.Errorf("missing signed params")
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return 0, "", err
	}
	return exp, sig, nil
}
