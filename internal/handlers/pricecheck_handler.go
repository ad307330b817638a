package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/pos-handoff/internal/analytics"
	"github.com/imrishuroy/pos-handoff/internal/catalog"
	"github.com/imrishuroy/pos-handoff/internal/validation"
)

func (s *server) lookupPrice(c *gin.Context) {
	var q validation.LookupQuery
	if err := validation.BindQueryAndValidate(c, &q, s.validate); err != nil {
		return
	}
	kind, value := q.Kind()
	product, err := s.cfg.Catalog.Lookup(c.Request.Context(), catalog.LookupKind(kind), value)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "product": product})
}

func (s *server) track(c *gin.Context) {
	var req validation.TrackRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	e := analytics.NewEvent(req.EventType, req.LookupType, req.QueryValue, req.Success, req.ErrorMessage, req.Meta, s.nowFunc())
	e.UserAgent = c.GetHeader("User-Agent")
	e.IPAddress = c.ClientIP()

	if err := s.cfg.Events.Record(c.Request.Context(), e); err != nil {
		s.logger.ErrorContext(c.Request.Context(), "record analytics event", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Failed to log analytics event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
