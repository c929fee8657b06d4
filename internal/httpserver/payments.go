package httpserver

import (
	"errors"
	"net/http"

	"bookshop/internal/domain"
	"bookshop/internal/payment"
	checkoutsvc "bookshop/internal/service/checkout"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type verifyRequest struct {
	TransactionID string `json:"transactionId"`
}

func initiatePaymentHandler(logger logrus.FieldLogger, svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in checkoutsvc.InitiateInput
		if err := bindJSON(c, &in, true); err != nil {
			writeError(c, logger, err)
			return
		}
		res, err := svc.InitiateCheckout(c.Request.Context(), identityFrom(c), in)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func verifyPaymentHandler(logger logrus.FieldLogger, svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in verifyRequest
		if err := bindJSON(c, &in, false); err != nil {
			writeError(c, logger, err)
			return
		}
		res, err := svc.VerifyPayment(c.Request.Context(), identityFrom(c), in.TransactionID)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func paymentStatusHandler(logger logrus.FieldLogger, svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.PaymentStatus(c.Request.Context(), identityFrom(c), c.Param("transactionId"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// paymentCallbackHandler is public; the payload signature authenticates it.
func paymentCallbackHandler(logger logrus.FieldLogger, svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p payment.CallbackPayload
		if err := bindJSON(c, &p, false); err != nil {
			writeError(c, logger, err)
			return
		}
		res, err := svc.HandleCallback(c.Request.Context(), p)
		if err != nil {
			if errors.Is(err, domain.ErrGateway) {
				logger.WithError(err).WithField("transaction_id", p.TransactionID).Warn("rejected payment callback")
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid callback"})
				return
			}
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func refundHandler(logger logrus.FieldLogger, svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in checkoutsvc.RefundInput
		if err := bindJSON(c, &in, false); err != nil {
			writeError(c, logger, err)
			return
		}
		res, err := svc.Refund(c.Request.Context(), identityFrom(c), in)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
