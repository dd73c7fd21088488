package router

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sweet_shop/internal/apperr"
	"sweet_shop/internal/auth"
	"sweet_shop/internal/metrics"
	"sweet_shop/internal/middleware"
	"sweet_shop/internal/service"
)

// Version 由 /health 返回。
const Version = "1.0.0"

// Deps 汇总路由需要的业务组件。
type Deps struct {
	Users     *service.UserDirectory
	Catalog   *service.Catalog
	Inventory *service.Inventory
	Gate      *auth.Gate
	Limiter   middleware.Limiter
	Log       logrus.FieldLogger

	AllowedOrigins []string
}

// New 创建带全局中间件的 gin 引擎并注册全部路由。
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORS(d.AllowedOrigins), middleware.RequestID(), middleware.Logger(d.Log), middleware.Metrics())
	Setup(r, d)
	return r
}

// Setup 注册全部 HTTP 路由。
// 受保护路由的中间件顺序：认证(401) → 角色(403) → 限流 → handler，
// 因此非管理员访问不存在的资源也只会得到 403。
func Setup(r *gin.Engine, d Deps) {
	r.GET("/health", health())
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	authn := r.Group("/api/auth")
	authn.POST("/register", register(d.Users, d.Log))
	authn.POST("/login", login(d.Users, d.Log))
	authn.GET("/me", middleware.Authenticate(d.Gate), me(d.Users, d.Log))

	api := r.Group("/api", middleware.Authenticate(d.Gate))
	permit := func(op auth.Operation) gin.HandlerFunc { return middleware.Permit(d.Gate, op) }

	// Sweets
	api.GET("/sweets", permit(auth.OpReadCatalog), listSweets(d.Catalog, d.Log))
	api.POST("/sweets/search", permit(auth.OpReadCatalog), searchSweets(d.Catalog, d.Log))
	api.GET("/sweets/:id", permit(auth.OpReadCatalog), getSweet(d.Catalog, d.Log))
	api.POST("/sweets", permit(auth.OpCreateSweet), createSweet(d.Catalog, d.Log))
	api.PUT("/sweets/:id", permit(auth.OpUpdateSweet), updateSweet(d.Catalog, d.Log))
	api.DELETE("/sweets/:id", permit(auth.OpDeleteSweet), deleteSweet(d.Catalog, d.Log))

	// Inventory
	api.POST("/sweets/:id/purchase", permit(auth.OpPurchase), middleware.RateLimit(d.Limiter, d.Log), purchase(d.Inventory, d.Log))
	api.POST("/sweets/:id/restock", permit(auth.OpRestockSweet), restock(d.Inventory, d.Log))
	api.GET("/purchases", permit(auth.OpReadHistory), purchaseHistory(d.Inventory, d.Log))

	// Users
	api.GET("/users", permit(auth.OpManageUsers), listUsers(d.Users, d.Log))
	api.PATCH("/users/:id/role", permit(auth.OpManageUsers), updateRole(d.Users, d.Log))
	api.POST("/users/:id/deactivate", permit(auth.OpManageUsers), deactivateUser(d.Users, d.Log))
}

// health 存活检查。
func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"status": "healthy", "version": Version}})
	}
}

// fail 统一错误响应；内部错误只记录日志，不向客户端暴露原因。
func fail(c *gin.Context, log logrus.FieldLogger, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		log.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.RequestIDFrom(c),
			"path":       c.FullPath(),
		}).Error("internal error")
	}
	_ = c.Error(err)
	middleware.Abort(c, err)
}

// badRequest 请求体或参数格式错误。
func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "msg": msg})
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"code": 0, "data": data})
}

// pathID 解析路径中的 :id。
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// page 解析 skip/limit 查询参数，范围由 service 校验。
func page(c *gin.Context, defaultLimit int) (skip, limit int, okay bool) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil {
		badRequest(c, "skip must be an integer")
		return 0, 0, false
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil {
		badRequest(c, "limit must be an integer")
		return 0, 0, false
	}
	return skip, limit, true
}

func identity(c *gin.Context) auth.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}
