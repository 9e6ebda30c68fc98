package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Healthz handles GET /healthz. It pings the database and reports the timer
// facility snapshot; a failed ping degrades the status to 503 so orchestrators
// can restart or route around the instance.
func (h *Handlers) Healthz(c *gin.Context) {
	status := http.StatusOK
	dbOK := true

	if sqlDB, err := h.Svc.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbOK = false
		status = http.StatusServiceUnavailable
	}

	snap := h.Svc.HealthSnapshot(c.Request.Context())
	if !snap.TimersRunning {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":         httpStatusWord(status),
		"db":             dbOK,
		"timers_running": snap.TimersRunning,
		"armed_timers":   snap.ArmedTimers,
		"armed_events":   snap.ArmedEvents,
	})
}

func httpStatusWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
