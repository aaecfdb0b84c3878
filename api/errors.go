package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	goerrors "github.com/goliatone/go-errors"
	"github.com/omnirevenue/agent/core"
)

func (s *Server) respondError(c *gin.Context, err *goerrors.Error) {
	if err == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown error"})
		return
	}
	if s != nil && s.logger != nil {
		logger := s.logger.WithContext(c.Request.Context())
		if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
			logger = fieldsLogger.WithFields(map[string]any{
				"path":   c.FullPath(),
				"status": err.Code,
				"error":  err.Message,
			})
		}
		logger.Error("request failed")
	}
	payload := gin.H{"error": err.Message}
	if strings.TrimSpace(err.TextCode) != "" {
		payload["error_code"] = err.TextCode
	}
	c.JSON(err.Code, payload)
}
