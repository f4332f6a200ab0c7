package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/switcher"
)

// SwitcherHandlers exposes switcher operations to shell surfaces that drive
// cycling themselves instead of going through the global hotkeys.
type SwitcherHandlers struct {
	sw *switcher.Switcher
}

// NewSwitcherHandlers creates the switcher endpoint set.
func NewSwitcherHandlers(sw *switcher.Switcher) *SwitcherHandlers {
	return &SwitcherHandlers{sw: sw}
}

// Register attaches the switcher routes.
func (h *SwitcherHandlers) Register(r gin.IRouter) {
	r.GET("/switcher", h.State)
	r.POST("/switcher/advance", h.Advance)
	r.POST("/switcher/advance-reverse", h.AdvanceReverse)
	r.POST("/switcher/commit", h.Commit)
	r.POST("/switcher/cancel", h.Cancel)
}

// State reports overlay visibility and the current selection.
func (h *SwitcherHandlers) State(c *gin.Context) {
	sel, open := h.sw.Selected()
	resp := gin.H{"visible": open}
	if open {
		resp["selected"] = sel
	}
	c.JSON(http.StatusOK, resp)
}

// Advance steps the cursor forward, opening the overlay if needed. With no
// running instances there is nothing to cycle and the call reports that.
func (h *SwitcherHandlers) Advance(c *gin.Context) {
	if !h.sw.SelectNext(c.Request.Context()) {
		c.JSON(http.StatusConflict, gin.H{"error": "no instances to cycle"})
		return
	}
	sel, _ := h.sw.Selected()
	c.JSON(http.StatusOK, gin.H{"selected": sel})
}

// AdvanceReverse steps the cursor backward.
func (h *SwitcherHandlers) AdvanceReverse(c *gin.Context) {
	if !h.sw.SelectPrevious(c.Request.Context()) {
		c.JSON(http.StatusConflict, gin.H{"error": "no instances to cycle"})
		return
	}
	sel, _ := h.sw.Selected()
	c.JSON(http.StatusOK, gin.H{"selected": sel})
}

// Commit switches to the selection and closes the overlay.
func (h *SwitcherHandlers) Commit(c *gin.Context) {
	if !h.sw.Commit(c.Request.Context()) {
		c.JSON(http.StatusConflict, gin.H{"error": "nothing selected or instance gone"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"switched": true})
}

// Cancel closes the overlay without switching.
func (h *SwitcherHandlers) Cancel(c *gin.Context) {
	h.sw.Cancel()
	c.JSON(http.StatusOK, gin.H{"canceled": true})
}
