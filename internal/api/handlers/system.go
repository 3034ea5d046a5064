package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/TheGojiOG/mcadmin/internal/console"
	"github.com/TheGojiOG/mcadmin/internal/models"
	"github.com/TheGojiOG/mcadmin/internal/systemd"
	"github.com/gin-gonic/gin"
)

const defaultLogLines = 100

// SystemHandler exposes lifecycle control of the managed services.
type SystemHandler struct {
	orchestrator *systemd.Orchestrator
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(orchestrator *systemd.Orchestrator) *SystemHandler {
	return &SystemHandler{orchestrator: orchestrator}
}

// Status samples every managed service.
func (h *SystemHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.StatusAll())
}

// ListServices returns the logical service names and their units.
func (h *SystemHandler) ListServices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"services": h.orchestrator.Services()})
}

func (h *SystemHandler) ServiceStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.Status(c.Param("service")))
}

func (h *SystemHandler) Start(c *gin.Context) {
	h.action(c, h.orchestrator.Start)
}

func (h *SystemHandler) Stop(c *gin.Context) {
	h.action(c, h.orchestrator.Stop)
}

func (h *SystemHandler) Restart(c *gin.Context) {
	h.action(c, h.orchestrator.Restart)
}

func (h *SystemHandler) action(c *gin.Context, run func(string) (*systemd.ActionResult, error)) {
	result, err := run(c.Param("service"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Logs returns recent journal lines, optionally filtered with the
// filter, pattern and case_sensitive query parameters.
func (h *SystemHandler) Logs(c *gin.Context) {
	service := c.Param("service")

	lines := defaultLogLines
	if raw := c.Query("lines"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lines must be an integer"})
			return
		}
		lines = parsed
	}

	filter, err := console.NewOutputFilter(c.Query("filter"), c.Query("pattern"), c.Query("case_sensitive") == "true")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logs, err := h.orchestrator.Logs(service, lines)
	if err != nil {
		respondError(c, err)
		return
	}

	entries := []string{}
	if logs != "" {
		entries = filter.FilterLines(strings.Split(logs, "\n"))
	}

	c.JSON(http.StatusOK, models.ServiceLogsResponse{
		Service: service,
		Lines:   lines,
		Logs:    entries,
	})
}

func (h *SystemHandler) Uptime(c *gin.Context) {
	service := c.Param("service")
	seconds, err := h.orchestrator.Uptime(service)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ServiceUptimeResponse{
		Service:         service,
		UptimeSeconds:   seconds,
		UptimeFormatted: systemd.FormatUptime(seconds),
	})
}
