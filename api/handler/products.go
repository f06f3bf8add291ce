package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListProducts returns a handler for GET /api/products?q=.
func ListProducts(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := svc.List(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, recs)
	}
}

// GetProduct returns a handler for GET /api/products/:id.
func GetProduct(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		rec, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// parseID reads the :id path parameter, writing a 400 when it is not a
// positive integer.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		invalidInput(c, "invalid id")
		return 0, false
	}
	return id, true
}
