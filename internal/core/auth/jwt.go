package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var ErrWrongTokenType = errors.New("wrong token type")

type Claims struct {
	UID  string `json:"uid"`
	Role string `json:"role"` // "user" or "admin"
	Type string `json:"typ"`  // access / refresh
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret     []byte
	Issuer     string
	TTL        time.Duration // access
	RefreshTTL time.Duration
	// Leeway 校验 exp/nbf 时容忍的时钟偏差，默认 0
	Leeway time.Duration
}

// Pair 登录/刷新返回的一对 token
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (j *JWTer) sign(uid, role, typ string, ttl time.Duration, now time.Time) (string, *Claims, error) {
	claims := &Claims{
		UID:  uid,
		Role: role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   uid,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(j.Secret)
	return s, claims, err
}

// Issue 签发 access token
func (j *JWTer) Issue(uid, role string) (string, error) {
	s, _, err := j.sign(uid, role, TypeAccess, j.TTL, time.Now())
	return s, err
}

func (j *JWTer) IssuePair(uid, role string) (Pair, error) {
	now := time.Now()
	access, _, err := j.sign(uid, role, TypeAccess, j.TTL, now)
	if err != nil {
		return Pair{}, err
	}
	refresh, _, err := j.sign(uid, role, TypeRefresh, j.refreshTTL(), now)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (j *JWTer) refreshTTL() time.Duration {
	if j.RefreshTTL <= 0 {
		return 24 * time.Hour
	}
	return j.RefreshTTL
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithIssuer(j.Issuer), jwt.WithExpirationRequired()}
	if j.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(j.Leeway))
	}
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, opts...)

	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// ParseType 解析并校验 token 类型
func (j *JWTer) ParseType(tokenStr, typ string) (*Claims, error) {
	c, err := j.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if c.Type != typ {
		return nil, ErrWrongTokenType
	}
	return c, nil
}
