package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/response"
)

// ServiceAuth 服务通道认证中间件
// 本格模拟器携带 JWT 访问的接口走此中间件，校验失败即拒绝
func ServiceAuth(tokenService service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从 Authorization 头获取令牌
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.ErrorWithMsg(c, response.CodeInvalidToken, "未提供认证令牌")
			c.Abort()
			return
		}

		// 检查 Bearer 前缀
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.ErrorWithMsg(c, response.CodeInvalidToken, "认证令牌格式错误")
			c.Abort()
			return
		}

		claims, err := tokenService.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			switch err {
			case service.ErrTokenExpired:
				response.ErrorWithMsg(c, response.CodeInvalidToken, "令牌已过期")
			case service.ErrInvalidToken:
				response.Error(c, response.CodeInvalidToken)
			default:
				response.ErrorWithMsg(c, response.CodeInvalidToken, "认证失败")
			}
			c.Abort()
			return
		}

		// 检查令牌类型
		if claims.Type != "service" {
			response.ErrorWithMsg(c, response.CodeInvalidToken, "无效的令牌类型")
			c.Abort()
			return
		}

		// 将通道信息存入上下文
		c.Set("service_name", claims.ServiceName)
		c.Set("region_id", claims.RegionID)
		c.Set("verified", true)
		c.Set("claims", claims)

		c.Next()
	}
}

// OptionalServiceAuth 可选的服务通道认证中间件
// 同一接口对内对外共用时使用：令牌有效则标记为已鉴权通道，
// 无令牌或校验失败按外部请求继续处理
func OptionalServiceAuth(tokenService service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		claims, err := tokenService.ValidateToken(c.Request.Context(), parts[1])
		if err == nil && claims.Type == "service" {
			c.Set("service_name", claims.ServiceName)
			c.Set("region_id", claims.RegionID)
			c.Set("verified", true)
			c.Set("claims", claims)
		}

		c.Next()
	}
}

// IsVerifiedChannel 当前请求是否来自已鉴权的本格通道
func IsVerifiedChannel(c *gin.Context) bool {
	v, ok := c.Get("verified")
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
