package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/meetscribe/meetscribe/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	wsHandler      *WS
	meetingHandler *Meeting
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, wsHandler *WS, meetingHandler *Meeting) *Router {
	return &Router{
		cfg:            cfg,
		wsHandler:      wsHandler,
		meetingHandler: meetingHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// Recording WebSocket
	e.GET("/ws", rt.wsHandler.Handle)

	// API v1 group
	v1 := e.Group("/v1")
	rt.setupMeetingRoutes(v1)
}

// setupMeetingRoutes configures meeting routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetingGroup := g.Group("/meetings")

	if rt.meetingHandler != nil {
		meetingGroup.GET("", rt.meetingHandler.ListMeetings)
		meetingGroup.GET("/:id", rt.meetingHandler.GetMeeting)
		meetingGroup.PATCH("/:id", rt.meetingHandler.UpdateMeeting)
		meetingGroup.DELETE("/:id", rt.meetingHandler.DeleteMeeting)
	} else {
		meetingGroup.GET("", rt.notImplemented)
		meetingGroup.GET("/:id", rt.notImplemented)
		meetingGroup.PATCH("/:id", rt.notImplemented)
		meetingGroup.DELETE("/:id", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
