package httpserver

import (
	"bytes"
	"net/http"
	"time"

	"bookshop/internal/domain"
	checkoutsvc "bookshop/internal/service/checkout"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type statusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func placeOrderHandler(logger logrus.FieldLogger, svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in checkoutsvc.PlaceOrderInput
		if err := bindJSON(c, &in, true); err != nil {
			writeError(c, logger, err)
			return
		}
		o, err := svc.PlaceOrder(c.Request.Context(), identityFrom(c), in)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Order created successfully", "order": o})
	}
}

func listUserOrdersHandler(logger logrus.FieldLogger, svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.ListUserOrders(c.Request.Context(), identityFrom(c), c.Param("userId"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func listAllOrdersHandler(logger logrus.FieldLogger, svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.ListAllOrders(c.Request.Context(), identityFrom(c))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func updateOrderStatusHandler(logger logrus.FieldLogger, svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in statusRequest
		if err := bindJSON(c, &in, false); err != nil {
			writeError(c, logger, err)
			return
		}
		o, err := svc.UpdateOrderStatus(c.Request.Context(), identityFrom(c), c.Param("orderId"), in.Status)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
	}
}

func exportOrdersHandler(logger logrus.FieldLogger, svc ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Buffer so a failure still produces a JSON error instead of a truncated file.
		var buf bytes.Buffer
		if err := svc.ExportOrders(c.Request.Context(), identityFrom(c), &buf); err != nil {
			writeError(c, logger, err)
			return
		}
		name := "orders-" + time.Now().UTC().Format("20060102") + ".xlsx"
		c.Header("Content-Disposition", "attachment; filename="+name)
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}
