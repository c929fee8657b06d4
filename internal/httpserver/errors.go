package httpserver

import (
	"errors"
	"io"
	"net/http"

	"bookshop/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// writeError maps domain errors onto status codes. Unknown errors are logged
// and reported as 500 without detail.
func writeError(c *gin.Context, logger logrus.FieldLogger, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"route":  c.FullPath(),
		}).Error("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func classify(err error) (int, string) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Message
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, domain.ErrGateway):
		return http.StatusBadGateway, "payment gateway unavailable"
	}
	return http.StatusInternalServerError, "internal server error"
}

// bindJSON decodes the request body into dst. An empty body leaves dst untouched
// when optional is set.
func bindJSON(c *gin.Context, dst any, optional bool) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return domain.Invalid("invalid request body")
	}
	return nil
}
