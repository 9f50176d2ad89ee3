package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.requestMetrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api/v1", s.authenticate())

	api.POST("/projects", s.createProject)
	api.GET("/projects", s.listProjects)
	api.GET("/projects/:id", s.getProject)
	api.PUT("/projects/:id/members/:userID", s.putMember)
	api.DELETE("/projects/:id/members/:userID", s.deleteMember)

	api.GET("/projects/:id/envs", s.listVersions)
	api.POST("/projects/:id/envs/:env", s.uploadEnvFile)
	api.GET("/projects/:id/envs/:env/download", s.downloadEnvFile)
	api.PUT("/projects/:id/env-files/:fileID", s.editEnvFile)
	api.DELETE("/projects/:id/env-files/:fileID", s.deleteEnvFile)

	api.GET("/projects/:id/secrets", s.listSecrets)
	api.POST("/projects/:id/secrets", s.createSecret)
	api.GET("/projects/:id/secrets/:secretID", s.getSecret)
	api.PATCH("/projects/:id/secrets/:secretID", s.updateSecret)
	api.DELETE("/projects/:id/secrets/:secretID", s.deleteSecret)

	api.GET("/projects/:id/audit", s.listAudit)
	api.GET("/projects/:id/audit/export", s.exportAudit)

	api.GET("/me/panic-config", s.getPanicConfig)
	api.PUT("/me/panic-config", s.putPanicConfig)
	api.POST("/me/panic", s.runPanic)

	return r
}
