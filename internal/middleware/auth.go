package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sweet_shop/internal/apperr"
	"sweet_shop/internal/auth"
)

const identityKey = "sweet_shop.identity"

// Authenticate 校验 Bearer token，成功后把身份写入 gin.Context；失败返回 401。
func Authenticate(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := gate.Authenticate(bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			Abort(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// Permit 在 Authenticate 之后按操作校验角色；非管理员访问管理操作返回 403，
// 先于任何资源存在性检查。
func Permit(gate *auth.Gate, op auth.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			Abort(c, apperr.Authentication("Invalid or expired token"))
			return
		}
		if err := gate.Permit(id, op); err != nil {
			Abort(c, err)
			return
		}
		c.Next()
	}
}

// IdentityFrom 取出已认证的身份。
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Abort 以统一响应格式终止请求：{"code": <status>, "msg": <message>}。
func Abort(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.AbortWithStatusJSON(status, gin.H{"code": status, "msg": apperr.PublicMessage(err)})
}

// abortTooManyRequests 与 Abort 同格式，限流不是业务错误，单独处理。
func abortTooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"code": http.StatusTooManyRequests,
		"msg":  "Too many requests, please retry later",
	})
}
