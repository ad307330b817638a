package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/pos-handoff/internal/handoff"
	"github.com/imrishuroy/pos-handoff/internal/staffauth"
	"github.com/imrishuroy/pos-handoff/internal/validation"
)

// claimedHandoff is a claimed record with its register cart lines.
type claimedHandoff struct {
	*handoff.Record
	CartLines []handoff.CartLine `json:"cartLines"`
}

func (s *server) handoffConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"enabled":       s.cfg.Enabled,
		"storeId":       s.cfg.PrimaryStoreID,
		"expiryMinutes": s.cfg.ExpiryMinutes,
	})
}

func (s *server) createHandoff(c *gin.Context) {
	var req validation.CreateHandoffRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}

	items := make([]handoff.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, handoff.ItemInput{
			VariantID: it.VariantID,
			SKU:       it.SKU,
			Barcode:   it.Barcode,
			Title:     it.Title,
			Quantity:  string(it.Quantity),
		})
	}

	rec, err := s.cfg.Handoffs.Create(c.Request.Context(), handoff.CreateCommand{
		StoreID:   req.StoreID,
		Items:     items,
		SessionID: req.SessionID,
	})
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"handoffCode": rec.Code,
		"expiresAt":   rec.ExpiresAt,
		"itemCount":   len(rec.Items),
	})
}

func (s *server) retrieveHandoff(c *gin.Context) {
	var q validation.RetrieveQuery
	if err := validation.BindQueryAndValidate(c, &q, s.validate); err != nil {
		return
	}
	rec, err := s.cfg.Handoffs.Retrieve(c.Request.Context(), q.Code, q.StoreID)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "handoff": rec})
}

func (s *server) claimHandoff(c *gin.Context) {
	var req validation.ClaimRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	s.claim(c, handoff.ClaimCommand{
		Code:    req.Code,
		StoreID: req.StoreID,
		StaffID: c.GetString(staffIDKey),
	})
}

// claimHandoffPOS authenticates the staff member by inline PIN, then runs
// the same claim as claimHandoff.
func (s *server) claimHandoffPOS(c *gin.Context) {
	var req validation.ClaimPOSRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	staffID, err := s.cfg.Credentials.CheckPIN(req.StaffID, req.PIN)
	if err != nil {
		s.logger.InfoContext(c.Request.Context(), "pos pin rejected", "staff", req.StaffID)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Unauthorized"})
		return
	}
	s.claim(c, handoff.ClaimCommand{
		Code:    req.Code,
		StoreID: req.StoreID,
		StaffID: staffID,
	})
}

func (s *server) claim(c *gin.Context, cmd handoff.ClaimCommand) {
	if cmd.StaffID == "" {
		writeError(c, s.logger, staffauth.ErrInvalidToken)
		return
	}
	res, err := s.cfg.Handoffs.Claim(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	body := gin.H{
		"ok": true,
		"handoff": claimedHandoff{
			Record:    res.Record,
			CartLines: handoff.ProjectCartLines(res.Record.Items),
		},
	}
	if res.Retry {
		body["retry"] = true
	}
	c.JSON(http.StatusOK, body)
}
