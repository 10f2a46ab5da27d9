package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMalformedToken means the identity claim is absent or unparsable.
var ErrMalformedToken = errors.New("malformed token: identity claim missing")

// Codec signs and verifies access/refresh tokens with a single symmetric
// secret. Lifetimes are whole minutes; expiry is UTC issue time plus the
// lifetime, verified with zero clock-skew leeway.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(secret []byte, accessMinutes, refreshMinutes int) *Codec {
	return &Codec{
		secret:     secret,
		accessTTL:  time.Duration(accessMinutes) * time.Minute,
		refreshTTL: time.Duration(refreshMinutes) * time.Minute,
	}
}

func (c *Codec) IssueAccessToken(id uuid.UUID, name, email, role string) (string, time.Time, error) {
	exp := time.Now().UTC().Add(c.accessTTL)
	claims := AccessClaims{
		Name:  name,
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func (c *Codec) IssueRefreshToken(id uuid.UUID) (string, time.Time, error) {
	exp := time.Now().UTC().Add(c.refreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Verified wraps claims that passed signature and expiry checks. It is the
// only way to read claims, so nothing can extract from an unverified token.
type Verified struct {
	claims jwt.MapClaims
}

// Validate verifies signature (HS256 only), structure and expiry. It reports
// false on any failure without distinguishing why.
func (c *Codec) Validate(raw string) (*Verified, bool) {
	tkn, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return c.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return nil, false
	}

	claims, ok := tkn.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	return &Verified{claims: claims}, true
}

func (v *Verified) IdentityID() (uuid.UUID, error) {
	sub, ok := v.claims["sub"].(string)
	if !ok || sub == "" {
		return uuid.Nil, ErrMalformedToken
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrMalformedToken
	}
	return id, nil
}

func (v *Verified) TokenID() string {
	jti, _ := v.claims["jti"].(string)
	return jti
}
