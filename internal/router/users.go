package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sweet_shop/internal/service"
)

// register 注册账户，邮箱与配置的管理员邮箱一致时自动成为管理员。
func register(users *service.UserDirectory, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email,max=255"`
			FullName string `json:"full_name" binding:"required,min=2,max=100"`
			Password string `json:"password" binding:"required,min=8,max=100"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		u, err := users.Register(c.Request.Context(), service.RegisterInput{
			Email:    req.Email,
			FullName: req.FullName,
			Password: req.Password,
		})
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"code": 0, "msg": "User registered successfully", "data": u})
	}
}

// login 校验凭证并签发 access token。
func login(users *service.UserDirectory, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		u, token, err := users.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, http.StatusOK, gin.H{
			"access_token": token,
			"token_type":   "bearer",
			"user":         u,
		})
	}
}

// me 返回当前登录用户。
func me(users *service.UserDirectory, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := users.GetByID(c.Request.Context(), identity(c).UserID)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, http.StatusOK, u)
	}
}

func listUsers(users *service.UserDirectory, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		skip, limit, valid := page(c, 10)
		if !valid {
			return
		}
		total, list, err := users.List(c.Request.Context(), skip, limit)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"total": total, "users": list})
	}
}

// updateRole 修改管理员标记；已签发的 token 在过期前仍携带旧角色。
func updateRole(users *service.UserDirectory, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := pathID(c)
		if !valid {
			return
		}
		var req struct {
			IsAdmin *bool `json:"is_admin" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		u, err := users.UpdateRole(c.Request.Context(), id, *req.IsAdmin)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, http.StatusOK, u)
	}
}

func deactivateUser(users *service.UserDirectory, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := pathID(c)
		if !valid {
			return
		}
		u, err := users.Deactivate(c.Request.Context(), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, http.StatusOK, u)
	}
}
