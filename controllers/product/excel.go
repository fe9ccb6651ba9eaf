package productcontroller

import (
	"io"
	"net/http"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/controllers/respond"
	"github.com/Mouuuuu1/valoria/services/catalog"
	"github.com/gin-gonic/gin"
)

const maxImportSize = 10 << 20

// POST /api/admin/products/import
func ImportProductsFromExcel(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			respond.Error(c, apperr.Validation("Excel file is required"))
			return
		}
		if header.Size > maxImportSize {
			respond.Error(c, apperr.Validation("Excel file is too large"))
			return
		}

		file, err := header.Open()
		if err != nil {
			respond.Error(c, err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respond.Error(c, err)
			return
		}

		result, err := svc.Import(c.Request.Context(), data)
		if err != nil {
			respond.Error(c, apperr.New(apperr.KindValidation, "Failed to parse Excel file: %v", err))
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
