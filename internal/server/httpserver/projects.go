package httpserver

import (
	"net/http"

	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/services"
	"github.com/gin-gonic/gin"
)

// authorize checks the caller's level on the :id project and aborts the
// request when it is not sufficient.
func (s *HTTPServer) authorize(c *gin.Context, required models.Permission) (*models.Project, bool) {
	p, err := s.svc.Access.Authorize(c.Request.Context(), currentUser(c), c.Param("id"), required)
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	return p, true
}

func (s *HTTPServer) requireOwner(c *gin.Context) (*models.Project, bool) {
	p, err := s.svc.Access.RequireOwner(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	return p, true
}

func (s *HTTPServer) createProject(c *gin.Context) {
	var in services.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	p, err := s.svc.Projects.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// listProjects returns accessible projects, or only owned ones with ?owned=true.
func (s *HTTPServer) listProjects(c *gin.Context) {
	var (
		list []*models.Project
		err  error
	)
	if c.Query("owned") == "true" {
		list, err = s.svc.Projects.ListOwned(c.Request.Context(), currentUser(c))
	} else {
		list, err = s.svc.Projects.ListAccessible(c.Request.Context(), currentUser(c))
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	if list == nil {
		list = []*models.Project{}
	}
	c.JSON(http.StatusOK, gin.H{"projects": list})
}

func (s *HTTPServer) getProject(c *gin.Context) {
	p, err := s.svc.Projects.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *HTTPServer) putMember(c *gin.Context) {
	var body struct {
		Permission models.Permission `json:"permission"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	p, err := s.svc.Projects.AddMember(c.Request.Context(), currentUser(c), c.Param("id"), services.MemberInput{
		UserID:     c.Param("userID"),
		Permission: body.Permission,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *HTTPServer) deleteMember(c *gin.Context) {
	p, err := s.svc.Projects.RemoveMember(c.Request.Context(), currentUser(c), c.Param("id"), c.Param("userID"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
