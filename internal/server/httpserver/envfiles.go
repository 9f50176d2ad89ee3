package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/hashenv/internal/cryptox"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/services"
	"github.com/gin-gonic/gin"
)

// maxBodySize leaves room for JSON framing around a maximum-size file.
const maxBodySize = 2 * cryptox.MaxPlaintextSize

// readContent accepts either a JSON {"content": "..."} body or the raw file.
func readContent(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

	if strings.HasPrefix(c.ContentType(), "application/json") {
		var body struct {
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			rejectBody(c, err)
			return nil, false
		}
		return []byte(body.Content), true
	}

	b, err := io.ReadAll(c.Request.Body)
	if err != nil {
		rejectBody(c, err)
		return nil, false
	}
	return b, true
}

// rejectBody reports an oversized body with the same message the services
// use for oversized content.
func rejectBody(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		badRequest(c, services.ErrContentTooLarge.Error())
		return
	}
	badRequest(c, "invalid request body")
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
}

func (s *HTTPServer) listVersions(c *gin.Context) {
	if _, ok := s.authorize(c, models.PermissionRead); !ok {
		return
	}

	list, err := s.svc.EnvFiles.ListVersions(c.Request.Context(), c.Param("id"), models.Environment(c.Query("environment")))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if list == nil {
		list = []*models.EnvFileMeta{}
	}
	c.JSON(http.StatusOK, gin.H{"versions": list})
}

func (s *HTTPServer) uploadEnvFile(c *gin.Context) {
	if _, ok := s.authorize(c, models.PermissionWrite); !ok {
		return
	}
	content, ok := readContent(c)
	if !ok {
		return
	}

	meta, err := s.svc.EnvFiles.Upload(c.Request.Context(), c.Param("id"), models.Environment(c.Param("env")), content, currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meta)
}

// downloadEnvFile returns the raw file. ?version=n selects a version,
// otherwise the latest is served.
func (s *HTTPServer) downloadEnvFile(c *gin.Context) {
	if _, ok := s.authorize(c, models.PermissionRead); !ok {
		return
	}

	var version *int
	if v := c.Query("version"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "version must be an integer")
			return
		}
		version = &n
	}

	content, meta, err := s.svc.EnvFiles.Download(c.Request.Context(), c.Param("id"), models.Environment(c.Param("env")), version, currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}

	noStore(c)
	c.Header("X-Env-Version", strconv.Itoa(meta.Version))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", content)
}

func (s *HTTPServer) editEnvFile(c *gin.Context) {
	if _, ok := s.requireOwner(c); !ok {
		return
	}
	content, ok := readContent(c)
	if !ok {
		return
	}

	meta, err := s.svc.EnvFiles.EditInPlace(c.Request.Context(), c.Param("id"), c.Param("fileID"), content, currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (s *HTTPServer) deleteEnvFile(c *gin.Context) {
	if _, ok := s.requireOwner(c); !ok {
		return
	}

	if err := s.svc.EnvFiles.Delete(c.Request.Context(), c.Param("id"), c.Param("fileID"), currentUser(c)); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
