package httpserver

import (
	"net/http"

	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) listSecrets(c *gin.Context) {
	if _, ok := s.authorize(c, models.PermissionRead); !ok {
		return
	}

	list, err := s.svc.Secrets.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if list == nil {
		list = []*models.SecretMeta{}
	}
	c.JSON(http.StatusOK, gin.H{"secrets": list})
}

func (s *HTTPServer) createSecret(c *gin.Context) {
	if _, ok := s.authorize(c, models.PermissionWrite); !ok {
		return
	}
	var in services.SecretInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	meta, err := s.svc.Secrets.Create(c.Request.Context(), c.Param("id"), currentUser(c), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meta)
}

func (s *HTTPServer) getSecret(c *gin.Context) {
	if _, ok := s.authorize(c, models.PermissionRead); !ok {
		return
	}

	meta, value, err := s.svc.Secrets.Get(c.Request.Context(), c.Param("id"), c.Param("secretID"), currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}

	noStore(c)
	c.JSON(http.StatusOK, gin.H{"secret": meta, "value": string(value)})
}

func (s *HTTPServer) updateSecret(c *gin.Context) {
	if _, ok := s.authorize(c, models.PermissionWrite); !ok {
		return
	}
	var in services.SecretUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	meta, err := s.svc.Secrets.Update(c.Request.Context(), c.Param("id"), c.Param("secretID"), currentUser(c), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (s *HTTPServer) deleteSecret(c *gin.Context) {
	if _, ok := s.authorize(c, models.PermissionWrite); !ok {
		return
	}

	if err := s.svc.Secrets.Delete(c.Request.Context(), c.Param("id"), c.Param("secretID"), currentUser(c)); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
