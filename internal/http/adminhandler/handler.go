package adminhandler

import (
	"net/http"
	"presencerelay/internal/events"
	"presencerelay/internal/notify"
	"presencerelay/internal/session"

	"github.com/gin-gonic/gin"
)

const notificationAck = "Notification sent to all connected clients"

// Presence is the read side the stats endpoint needs.
type Presence interface {
	Stats() session.Stats
}

// Names lists currently registered display names.
type Names interface {
	Names() []string
}

type Handler struct {
	pub      notify.Publisher
	presence Presence
	names    Names
}

func New(pub notify.Publisher, presence Presence, names Names) *Handler {
	return &Handler{pub: pub, presence: presence, names: names}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/", h.hello)
	r.GET("/healthz", h.health)
	r.GET("/stats", h.stats)
	r.POST("/set-notification", h.notify)
}

func (h *Handler) hello(c *gin.Context) {
	c.String(http.StatusOK, "Hello World")
}

func (h *Handler) health(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// @Summary		Presence statistics
// @Description	Live connection and registered-name counts.
// @Tags			Admin
// @Param			users	query		bool	false	"Include registered names"
// @Success		200		{object}	StatsResponse
// @Router			/stats [get]
func (h *Handler) stats(c *gin.Context) {
	st := h.presence.Stats()
	res := StatsResponse{Connections: st.Connections, Registered: st.Registered}
	if c.Query("users") == "true" {
		res.Users = h.names.Names()
	}
	c.JSON(http.StatusOK, res)
}

// @Summary		Broadcast a notification
// @Description	Sends a notification event to every connected client.
// @Tags			Admin
// @Param			title	query		string	false	"Notification title"
// @Param			message	query		string	true	"Notification text"
// @Success		200		{string}	string
// @Failure		400		{object}	ErrorResponse
// @Failure		502		{object}	ErrorResponse
// @Router			/set-notification [post]
func (h *Handler) notify(ginCtx *gin.Context) {
	var q NotificationQuery
	if err := ginCtx.ShouldBindQuery(&q); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	err := h.pub.Publish(ginCtx.Request.Context(), events.NotificationBody{Title: q.Title, Message: q.Message})
	if err != nil {
		ginCtx.JSON(http.StatusBadGateway, &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.String(http.StatusOK, notificationAck)
}
