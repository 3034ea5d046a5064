package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/TheGojiOG/mcadmin/internal/api/middleware"
	"github.com/TheGojiOG/mcadmin/internal/models"
	"github.com/TheGojiOG/mcadmin/internal/server"
	"github.com/gin-gonic/gin"
)

const (
	defaultKickReason = "Kicked by admin"
	defaultBanReason  = "Banned by admin"
)

// MinecraftHandler exposes console commands and player management.
type MinecraftHandler struct {
	dispatcher *server.Dispatcher
}

// NewMinecraftHandler creates a new minecraft handler
func NewMinecraftHandler(dispatcher *server.Dispatcher) *MinecraftHandler {
	return &MinecraftHandler{dispatcher: dispatcher}
}

// Test checks the console connection with the list command.
func (h *MinecraftHandler) Test(c *gin.Context) {
	result, err := h.dispatcher.Test()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"executed_by": middleware.Subject(c),
		"roles":       middleware.Roles(c).Names(),
		"response":    result.Response,
	})
}

// ExecuteCommand runs a free-form command after the policy check.
func (h *MinecraftHandler) ExecuteCommand(c *gin.Context) {
	var req models.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject := middleware.Subject(c)
	result, err := h.dispatcher.Run(req.Command, middleware.Roles(c))
	if err != nil {
		log.Printf("[API] Command from %s rejected or failed: %v", subject, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CommandResponse{
		Success:        result.Success,
		Command:        result.Command,
		ExecutedBy:     subject,
		Response:       result.Response,
		MatchedPattern: result.Pattern,
		Players:        result.Players,
	})
}

// CheckCommand reports whether the caller may run a command without
// sending it.
func (h *MinecraftHandler) CheckCommand(c *gin.Context) {
	var req models.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision := h.dispatcher.Policy().Authorize(req.Command, middleware.Roles(c))
	resp := models.CommandCheckResponse{Command: strings.TrimSpace(req.Command), Allowed: decision.Allowed}
	if decision.Pattern != nil {
		resp.MatchedPattern = decision.Pattern.Expr
	}
	c.JSON(http.StatusOK, resp)
}

// AllowedCommands lists the patterns and examples visible to the caller.
func (h *MinecraftHandler) AllowedCommands(c *gin.Context) {
	roles := middleware.Roles(c)
	engine := h.dispatcher.Policy()
	c.JSON(http.StatusOK, models.AllowedCommandsResponse{
		Roles:    roles.Names(),
		Allowed:  engine.AllowedPatterns(roles),
		Examples: engine.Examples(),
	})
}

// Players returns the interpreted roster. Console failures show up in the
// error field with a 200 status.
func (h *MinecraftHandler) Players(c *gin.Context) {
	c.JSON(http.StatusOK, h.dispatcher.PlayerList())
}

func (h *MinecraftHandler) WhitelistAdd(c *gin.Context) {
	h.respond(c)(h.dispatcher.WhitelistAdd(c.Param("player")))
}

func (h *MinecraftHandler) WhitelistRemove(c *gin.Context) {
	h.respond(c)(h.dispatcher.WhitelistRemove(c.Param("player")))
}

func (h *MinecraftHandler) Kick(c *gin.Context) {
	reason := c.DefaultQuery("reason", defaultKickReason)
	h.respond(c)(h.dispatcher.Kick(c.Param("player"), reason))
}

func (h *MinecraftHandler) Ban(c *gin.Context) {
	reason := c.DefaultQuery("reason", defaultBanReason)
	h.respond(c)(h.dispatcher.Ban(c.Param("player"), reason))
}

func (h *MinecraftHandler) Pardon(c *gin.Context) {
	h.respond(c)(h.dispatcher.Pardon(c.Param("player")))
}

func (h *MinecraftHandler) Op(c *gin.Context) {
	h.respond(c)(h.dispatcher.Op(c.Param("player")))
}

func (h *MinecraftHandler) Deop(c *gin.Context) {
	h.respond(c)(h.dispatcher.Deop(c.Param("player")))
}

func (h *MinecraftHandler) Broadcast(c *gin.Context) {
	var req models.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c)(h.dispatcher.Broadcast(req.Message))
}

func (h *MinecraftHandler) respond(c *gin.Context) func(*server.CommandResult, error) {
	return func(result *server.CommandResult, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		log.Printf("[API] %s ran %q", middleware.Subject(c), result.Command)
		c.JSON(http.StatusOK, models.CommandResponse{
			Success:    true,
			Command:    result.Command,
			ExecutedBy: middleware.Subject(c),
			Response:   result.Response,
		})
	}
}
