package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/pos-handoff/internal/staffauth"
	"github.com/imrishuroy/pos-handoff/internal/validation"
)

func (s *server) staffAuthConfigured() bool {
	return s.cfg.Signer.Configured() && s.cfg.Credentials.LoginConfigured()
}

func (s *server) login(c *gin.Context) {
	if !s.staffAuthConfigured() {
		writeError(c, s.logger, staffauth.ErrNotConfigured)
		return
	}
	var req validation.LoginRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}

	staffID, err := s.cfg.Credentials.Login(req.Email, req.Password)
	if err != nil {
		s.logger.InfoContext(c.Request.Context(), "staff login rejected", "ip", c.ClientIP())
		writeError(c, s.logger, err)
		return
	}
	token, sess, err := s.cfg.Signer.Issue(staffID)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(staffauth.CookieName, token, int(staffauth.SessionDuration.Seconds()), "/", "", s.cfg.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"staffId":   staffID,
		"token":     token,
		"expiresAt": sess.ExpiresAt,
	})
}

func (s *server) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(staffauth.CookieName, "", -1, "/", "", s.cfg.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) session(c *gin.Context) {
	if !s.staffAuthConfigured() {
		writeError(c, s.logger, staffauth.ErrNotConfigured)
		return
	}
	sess, err := s.cfg.Signer.Verify(sessionToken(c))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": true, "authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "authenticated": true, "staffId": sess.StaffID})
}
