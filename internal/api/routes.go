package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/zkgate-project/zkgate/internal/gateway"
	"github.com/zkgate-project/zkgate/internal/util"
)

// handleHealth is the liveness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"devices":   len(s.manager.DeviceNames()),
		"connected": s.manager.ConnectedCount(),
	})
}

// handleListDevices returns a snapshot of every managed terminal.
func (s *Server) handleListDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"devices": s.manager.AllDevices()})
}

// handleGetDevice returns one terminal's snapshot.
func (s *Server) handleGetDevice(c *gin.Context) {
	info, err := s.manager.DeviceInfo(c.Param("name"))
	if err != nil {
		s.deviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleEnableDevice(c *gin.Context) {
	s.control(c, "enabled", s.manager.Enable)
}

func (s *Server) handleDisableDevice(c *gin.Context) {
	s.control(c, "disabled", s.manager.Disable)
}

func (s *Server) handleTestVoice(c *gin.Context) {
	s.control(c, "voice_tested", s.manager.TestVoice)
}

// handleRestartDevice reboots a terminal. The gateway reconnects once
// the device comes back up.
func (s *Server) handleRestartDevice(c *gin.Context) {
	name := c.Param("name")
	if err := s.manager.Restart(c.Request.Context(), name); err != nil {
		s.deviceError(c, err)
		return
	}
	log.Info().Str("device", name).Msg("API: device restarting")
	c.JSON(http.StatusOK, gin.H{"status": "restarting", "device": name})
}

// handlePollDevice forces an immediate status poll.
func (s *Server) handlePollDevice(c *gin.Context) {
	name := c.Param("name")
	if err := s.manager.Poll(c.Request.Context(), name); err != nil {
		s.deviceError(c, err)
		return
	}
	info, _ := s.manager.DeviceInfo(name)
	c.JSON(http.StatusOK, info)
}

// handleGetEvents returns recent device events from the store.
func (s *Server) handleGetEvents(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	rows, err := s.db.RecentEvents(limit)
	if err != nil {
		log.Error().Err(err).Msg("API: failed to read events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": rows})
}

// handleGetSystem returns host system information.
func (s *Server) handleGetSystem(c *gin.Context) {
	info := util.GetSystemInfo()
	cpu, mem := util.GetResourceUsage()
	c.JSON(http.StatusOK, gin.H{
		"system":         info,
		"cpu_percent":    cpu,
		"memory_percent": mem,
	})
}

func (s *Server) control(c *gin.Context, status string, fn func(context.Context, string) error) {
	name := c.Param("name")
	if err := fn(c.Request.Context(), name); err != nil {
		s.deviceError(c, err)
		return
	}
	log.Info().Str("device", name).Str("status", status).Msg("API: device control")
	c.JSON(http.StatusOK, gin.H{"status": status, "device": name})
}

func (s *Server) deviceError(c *gin.Context, err error) {
	var unknown *gateway.UnknownDeviceError
	if errors.As(err, &unknown) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
