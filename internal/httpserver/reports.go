package httpserver

import (
	"net/http"
	"strconv"

	"bookshop/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func purchaseHistoryHandler(logger logrus.FieldLogger, svc ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := svc.History(c.Request.Context(), identityFrom(c).UserID)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, groups)
	}
}

func purchaseStatsHandler(logger logrus.FieldLogger, svc ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Stats(c.Request.Context(), identityFrom(c).UserID)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func topSellingHandler(logger logrus.FieldLogger, svc ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(c, logger, domain.Invalid("limit must be an integer"))
				return
			}
			limit = n
		}
		books, err := svc.TopSelling(c.Request.Context(), limit)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, books)
	}
}

func summaryHandler(logger logrus.FieldLogger, svc ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := svc.Summary(c.Request.Context(), identityFrom(c))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}
