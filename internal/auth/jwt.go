package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the owning user's id. The payload is deliberately minimal:
// nothing beyond the identifier and the registered timestamps goes into a
// token.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Keys holds the two independent signing secrets. A leaked access key must
// not allow forging refresh tokens, so the pair is never collapsed into one.
type Keys struct {
	Access  []byte
	Refresh []byte
}

// Issuer mints access/refresh token pairs. Keys and TTLs are injected at
// construction so tests can run with throwaway secrets.
type Issuer struct {
	keys       Keys
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
}

func NewIssuer(keys Keys, accessTTL, refreshTTL time.Duration, issuer string) *Issuer {
	return &Issuer{
		keys:       keys,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     issuer,
	}
}

func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssueTokenPair signs one access and one refresh token for userID. Pure
// computation: no storage is touched, the tokens are self-contained.
func (i *Issuer) IssueTokenPair(userID string, now time.Time) (access string, refresh string, err error) {
	access, err = i.IssueAccessToken(userID, now)
	if err != nil {
		return "", "", err
	}

	refresh, err = sign(userID, i.keys.Refresh, i.refreshTTL, i.issuer, now)
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

func (i *Issuer) IssueAccessToken(userID string, now time.Time) (string, error) {
	return sign(userID, i.keys.Access, i.accessTTL, i.issuer, now)
}

func sign(userID string, secret []byte, ttl time.Duration, issuer string, now time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verifier checks token signatures and expiry. TimeFunc defaults to
// time.Now and exists so expiry boundaries can be tested deterministically.
type Verifier struct {
	keys     Keys
	TimeFunc func() time.Time
}

func NewVerifier(keys Keys) *Verifier {
	return &Verifier{keys: keys, TimeFunc: time.Now}
}

// VerifyAccess validates an access token and returns its claims.
func (v *Verifier) VerifyAccess(tokenString string) (*Claims, error) {
	return v.verify(tokenString, v.keys.Access)
}

// VerifyRefresh validates a refresh token against the refresh key. An access
// token presented here fails the signature check.
func (v *Verifier) VerifyRefresh(tokenString string) (*Claims, error) {
	return v.verify(tokenString, v.keys.Refresh)
}

func (v *Verifier) verify(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.TimeFunc),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
