package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gsource-auth/internal/pkg/config"
	"gsource-auth/pkg/constants"
	pkgErrors "gsource-auth/pkg/errors"
)

// Claims 调用方 Claims，Subject 为调用方名称（构建系统、agent 或管理员）
type Claims struct {
	Roles []string `json:"roles"`
	Type  string   `json:"type"`
	jwt.RegisteredClaims
}

// Manager 签发与校验 token
type Manager struct {
	secret []byte
	issuer string
	expire time.Duration
}

func NewManager(cfg config.JWTConfig) *Manager {
	return &Manager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		expire: time.Duration(cfg.AccessTokenExpire) * time.Second,
	}
}

// GenerateAccessToken 生成访问Token
func (m *Manager) GenerateAccessToken(subject string, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: roles,
		Type:  constants.JWTTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expire)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 解析并校验Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeUnauthorized, "解析Token失败", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, pkgErrors.ErrInvalidToken
	}
	if claims.Type != constants.JWTTypeAccess {
		return nil, pkgErrors.ErrInvalidToken
	}
	return claims, nil
}
