// Package service 令牌服务
package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 令牌相关错误
var (
	ErrInvalidToken     = errors.New("无效的令牌")
	ErrTokenExpired     = errors.New("令牌已过期")
	ErrInvalidSignature = errors.New("签名验证失败")
	ErrInvalidIssuer    = errors.New("无效的签发者")
)

// TokenClaims JWT 声明
// 本格模拟器凭此令牌走已鉴权通道访问联邦服务
type TokenClaims struct {
	jwt.RegisteredClaims
	ServiceName string `json:"svc,omitempty"`       // 调用方服务名
	RegionID    string `json:"region_id,omitempty"` // 调用方所属区域
	Type        string `json:"type,omitempty"`      // service
}

// TokenService 令牌服务接口
type TokenService interface {
	// GenerateServiceToken 为本格服务签发通道令牌
	GenerateServiceToken(ctx context.Context, claims *TokenClaims) (string, error)
	// ValidateToken 验证令牌
	ValidateToken(ctx context.Context, tokenString string) (*TokenClaims, error)
	// RevokeToken 撤销令牌
	RevokeToken(ctx context.Context, tokenString string) error
	// GetPublicKey 获取公钥
	GetPublicKey() *rsa.PublicKey
	// GetKeyID 获取密钥 ID
	GetKeyID() string
}

// tokenService 令牌服务实现
type tokenService struct {
	privateKey   *rsa.PrivateKey
	publicKey    *rsa.PublicKey
	keyID        string
	issuer       string
	accessExpiry time.Duration
	// 已撤销令牌（生产环境应使用 Redis）
	revokedTokens map[string]time.Time
}

// TokenServiceConfig 令牌服务配置
type TokenServiceConfig struct {
	PrivateKey   *rsa.PrivateKey
	PublicKey    *rsa.PublicKey
	KeyID        string
	Issuer       string
	AccessExpiry time.Duration
}

// NewTokenService 创建令牌服务
func NewTokenService(cfg *TokenServiceConfig) TokenService {
	if cfg.AccessExpiry == 0 {
		cfg.AccessExpiry = DefaultAccessExpiry
	}
	return &tokenService{
		privateKey:    cfg.PrivateKey,
		publicKey:     cfg.PublicKey,
		keyID:         cfg.KeyID,
		issuer:        cfg.Issuer,
		accessExpiry:  cfg.AccessExpiry,
		revokedTokens: make(map[string]time.Time),
	}
}

// GenerateServiceToken 为本格服务签发通道令牌
func (s *tokenService) GenerateServiceToken(ctx context.Context, claims *TokenClaims) (string, error) {
	now := time.Now()
	claims.Type = "service"
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   claims.ServiceName,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpiry)),
		ID:        generateTokenID(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyID

	return token.SignedString(s.privateKey)
}

// ValidateToken 验证令牌
func (s *tokenService) ValidateToken(ctx context.Context, tokenString string) (*TokenClaims, error) {
	// 检查是否已撤销
	if _, revoked := s.revokedTokens[tokenString]; revoked {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidSignature
		}
		return s.publicKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// 验证签发者
	if claims.Issuer != s.issuer {
		return nil, ErrInvalidIssuer
	}

	return claims, nil
}

// RevokeToken 撤销令牌
func (s *tokenService) RevokeToken(ctx context.Context, tokenString string) error {
	s.revokedTokens[tokenString] = time.Now()
	return nil
}

// GetPublicKey 获取公钥
func (s *tokenService) GetPublicKey() *rsa.PublicKey {
	return s.publicKey
}

// GetKeyID 获取密钥 ID
func (s *tokenService) GetKeyID() string {
	return s.keyID
}

// generateTokenID 生成令牌 ID
func generateTokenID() string {
	return generateSecureCode(16)
}

// generateSecureCode 生成安全随机码
func generateSecureCode(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return base64.URLEncoding.EncodeToString(bytes)[:length]
}

// 令牌有效期常量
const (
	DefaultAccessExpiry = 15 * time.Minute
)
