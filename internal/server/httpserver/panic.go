package httpserver

import (
	"net/http"

	"github.com/dmitrijs2005/hashenv/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) getPanicConfig(c *gin.Context) {
	cfg, err := s.svc.PanicConfigs.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *HTTPServer) putPanicConfig(c *gin.Context) {
	var in services.PanicConfigInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	cfg, err := s.svc.PanicConfigs.Update(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// runPanic triggers the cascade. ?confirm=true is required when the
// caller's configuration asks for confirmation.
func (s *HTTPServer) runPanic(c *gin.Context) {
	res, err := s.svc.Panic.Run(c.Request.Context(), currentUser(c), c.Query("confirm") == "true")
	if err != nil {
		s.writeError(c, err)
		return
	}

	noStore(c)
	c.JSON(http.StatusOK, res)
}
