package productcontroller

import (
	"net/http"
	"strconv"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/controllers/respond"
	"github.com/Mouuuuu1/valoria/services/catalog"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GET /api/products
func GetProducts(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := catalog.Query{
			Category: c.Query("category"),
			Search:   c.Query("search"),
			Sort:     c.Query("sort"),
		}
		q.Page, q.Limit = respond.Page(c)

		for param, dst := range map[string]**decimal.Decimal{"min_price": &q.MinPrice, "max_price": &q.MaxPrice} {
			raw := c.Query(param)
			if raw == "" {
				continue
			}
			v, err := decimal.NewFromString(raw)
			if err != nil {
				respond.Error(c, apperr.Validation("invalid %s", param))
				return
			}
			*dst = &v
		}
		if raw := c.Query("featured"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				respond.Error(c, apperr.Validation("invalid featured"))
				return
			}
			q.Featured = &v
		}

		page, err := svc.List(c.Request.Context(), q)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}
