package shopify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt"
)

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims are the claims of an App Bridge session token.
type SessionClaims struct {
	jwt.StandardClaims
	Dest string `json:"dest"`
	Sid  string `json:"sid"`
}

// Shop extracts the shop domain from the dest claim.
func (c *SessionClaims) Shop() string {
	u, err := url.Parse(c.Dest)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Host)
}

// VerifySessionToken checks an App Bridge session token: HS256 signed with
// the app secret, issued for apiKey, unexpired, for a myshopify.com shop.
func VerifySessionToken(token, apiKey, apiSecret string) (*SessionClaims, error) {
	if token == "" || apiSecret == "" {
		return nil, ErrInvalidSessionToken
	}
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(apiSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if apiKey != "" && !claims.VerifyAudience(apiKey, true) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidSessionToken)
	}
	if !ValidShopDomain(claims.Shop()) {
		return nil, fmt.Errorf("%w: bad dest %q", ErrInvalidSessionToken, claims.Dest)
	}
	return claims, nil
}
