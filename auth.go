package main

import (
	"net/http"

	"finboard/models"
	"finboard/pkg/auth"

	"github.com/gin-gonic/gin"
)

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	Status string       `json:"status"`
	Token  string       `json:"token"`
	User   userResponse `json:"user"`
}

func publicUser(u *models.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (s *server) registerHandler(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(c, err)
		return
	}
	user, tok, err := s.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.logger.InfoContext(c.Request.Context(), "user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, authResponse{Status: "success", Token: tok, User: publicUser(user)})
}

func (s *server) loginHandler(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(c, err)
		return
	}
	user, tok, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{Status: "success", Token: tok, User: publicUser(user)})
}

func (s *server) meHandler(c *gin.Context, id auth.Identity) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "user": id.User})
}

// deleteMeHandler removes the caller and everything they own.
func (s *server) deleteMeHandler(c *gin.Context, id auth.Identity) {
	if err := s.cascade.DeleteUser(c.Request.Context(), id.UserID); err != nil {
		s.respondError(c, storeError(err, auth.MsgUserGone))
		return
	}
	c.JSON(http.StatusOK, messageResponse{
		Status:  "success",
		Message: "account deleted together with all associated data",
	})
}
