package server

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil || req.Password == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": result.User})
}

func (s *Server) Logout(c *gin.Context) {
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (s *Server) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	message, err := s.authsvc.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func (s *Server) ValidateResetToken(c *gin.Context) {
	rawToken := strings.TrimSpace(c.Query("token"))
	if rawToken == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	status, err := s.authsvc.ValidateResetToken(c.Request.Context(), rawToken)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !status.Valid {
		c.JSON(http.StatusOK, gin.H{"success": true, "valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "valid": true, "email": status.Email})
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.authsvc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type AcceptInviteRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AcceptInvite redeems an invite token and logs the new admin in, so the
// client lands authenticated exactly like after login.
func (s *Server) AcceptInvite(c *gin.Context) {
	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authsvc.AcceptInvite(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": result.User})
}
