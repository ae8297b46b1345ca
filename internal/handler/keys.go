package handler

import (
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
)

// KeysHandler 服务通道验签公钥发布
// 网格内其它服务拉取公钥后可自行验签通道令牌
type KeysHandler struct {
	tokenService service.TokenService
}

// NewKeysHandler 创建公钥发布处理器
func NewKeysHandler(tokenSvc service.TokenService) *KeysHandler {
	return &KeysHandler{tokenService: tokenSvc}
}

// JWKS JSON Web Key Set 端点
// GET /.well-known/jwks.json
func (h *KeysHandler) JWKS(c *gin.Context) {
	publicKey := h.tokenService.GetPublicKey()
	keyID := h.tokenService.GetKeyID()

	jwk := rsaPublicKeyToJWK(publicKey, keyID)

	c.JSON(http.StatusOK, gin.H{
		"keys": []gin.H{jwk},
	})
}

// rsaPublicKeyToJWK 将 RSA 公钥转换为 JWK 格式
func rsaPublicKeyToJWK(key *rsa.PublicKey, keyID string) gin.H {
	return gin.H{
		"kty": "RSA",
		"use": "sig",
		"alg": "RS256",
		"kid": keyID,
		"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}
}
