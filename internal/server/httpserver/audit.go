package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) listAudit(c *gin.Context) {
	if _, ok := s.authorize(c, models.PermissionRead); !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.svc.Audit.List(c.Request.Context(), c.Param("id"), models.Environment(c.Query("environment")), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if entries == nil {
		entries = []*models.AuditLogEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *HTTPServer) exportAudit(c *gin.Context) {
	if _, ok := s.authorize(c, models.PermissionRead); !ok {
		return
	}

	out, err := s.svc.Audit.Export(c.Request.Context(), c.Param("id"), models.Environment(c.Query("environment")))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "audit-"+c.Param("id")+".txt"))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(out))
}
