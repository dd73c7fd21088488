package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sweet_shop/internal/service"
)

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// purchase 为当前用户购买商品。
// 数量范围在 service 中校验，保证“用户 → 商品 → 数量 → 库存”的校验顺序。
func purchase(inv *service.Inventory, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sweetID, valid := pathID(c)
		if !valid {
			return
		}
		var req quantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		p, err := inv.Purchase(c.Request.Context(), identity(c).UserID, sweetID, req.Quantity)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "Purchase successful", "data": p})
	}
}

// restock 补货（管理员），补货后商品总是标记为可售。
func restock(inv *service.Inventory, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sweetID, valid := pathID(c)
		if !valid {
			return
		}
		var req quantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		s, err := inv.Restock(c.Request.Context(), sweetID, req.Quantity)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, http.StatusOK, s)
	}
}

// purchaseHistory 当前用户的购买记录，最新在前。
func purchaseHistory(inv *service.Inventory, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		skip, limit, valid := page(c, 50)
		if !valid {
			return
		}
		total, list, err := inv.PurchaseHistory(c.Request.Context(), identity(c).UserID, skip, limit)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"total": total, "purchases": list})
	}
}
