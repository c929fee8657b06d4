package httpserver

import (
	"net/http"

	cartsvc "bookshop/internal/service/cart"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func addCartItemHandler(logger logrus.FieldLogger, svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cartsvc.AddInput
		if err := bindJSON(c, &in, false); err != nil {
			writeError(c, logger, err)
			return
		}
		item, err := svc.AddItem(c.Request.Context(), identityFrom(c).UserID, in)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "item": item})
	}
}

func listCartHandler(logger logrus.FieldLogger, svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.List(c.Request.Context(), identityFrom(c).UserID)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func removeCartItemHandler(logger logrus.FieldLogger, svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Remove(c.Request.Context(), identityFrom(c).UserID, c.Param("itemId")); err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
