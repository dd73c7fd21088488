package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sweet_shop/internal/service"
)

func listSweets(catalog *service.Catalog, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		skip, limit, valid := page(c, 100)
		if !valid {
			return
		}
		total, list, err := catalog.List(c.Request.Context(), skip, limit)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"total": total, "sweets": list})
	}
}

// searchSweets 多条件组合查询；in_stock=false 等同于不过滤。
func searchSweets(catalog *service.Catalog, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     *string          `json:"name"`
			Category *string          `json:"category"`
			MinPrice *decimal.Decimal `json:"min_price"`
			MaxPrice *decimal.Decimal `json:"max_price"`
			InStock  *bool            `json:"in_stock"`
		}
		// 空 body 视为无过滤条件。
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, err.Error())
				return
			}
		}
		if req.MinPrice != nil && req.MinPrice.IsNegative() {
			badRequest(c, "min_price must be greater than or equal to 0")
			return
		}
		if req.MaxPrice != nil && req.MaxPrice.IsNegative() {
			badRequest(c, "max_price must be greater than or equal to 0")
			return
		}
		total, list, err := catalog.Search(c.Request.Context(), service.SearchFilter{
			Name:     req.Name,
			Category: req.Category,
			MinPrice: req.MinPrice,
			MaxPrice: req.MaxPrice,
			InStock:  req.InStock,
		})
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"total": total, "sweets": list})
	}
}

func getSweet(catalog *service.Catalog, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := pathID(c)
		if !valid {
			return
		}
		s, err := catalog.Get(c.Request.Context(), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, http.StatusOK, s)
	}
}

// createSweet 创建商品（管理员）。价格与库存范围由 service 校验。
func createSweet(catalog *service.Catalog, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name        string          `json:"name" binding:"required,min=2,max=100"`
			Description *string         `json:"description" binding:"omitempty,max=500"`
			Category    string          `json:"category" binding:"required,min=2,max=50"`
			Price       decimal.Decimal `json:"price"`
			Quantity    int             `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		s, err := catalog.Create(c.Request.Context(), service.CreateSweetInput{
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Price:       req.Price,
			Quantity:    req.Quantity,
		})
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, http.StatusCreated, s)
	}
}

// updateSweet 局部更新，未出现的字段保持不变。
func updateSweet(catalog *service.Catalog, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := pathID(c)
		if !valid {
			return
		}
		var req struct {
			Name        *string          `json:"name" binding:"omitempty,min=2,max=100"`
			Description *string          `json:"description" binding:"omitempty,max=500"`
			Category    *string          `json:"category" binding:"omitempty,min=2,max=50"`
			Price       *decimal.Decimal `json:"price"`
			Quantity    *int             `json:"quantity"`
			IsAvailable *bool            `json:"is_available"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		s, err := catalog.Update(c.Request.Context(), id, service.SweetUpdate{
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Price:       req.Price,
			Quantity:    req.Quantity,
			IsAvailable: req.IsAvailable,
		})
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, http.StatusOK, s)
	}
}

// deleteSweet 删除商品并级联删除其购买记录。
func deleteSweet(catalog *service.Catalog, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := pathID(c)
		if !valid {
			return
		}
		if err := catalog.Delete(c.Request.Context(), id); err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "Sweet deleted successfully"})
	}
}
