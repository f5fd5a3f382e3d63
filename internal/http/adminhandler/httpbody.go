package adminhandler

type NotificationQuery struct {
	Title   string `form:"title"   example:"Maintenance"`
	Message string `form:"message" binding:"required" example:"Server restarts at 18:00"`
} // @name NotificationQuery

type StatsResponse struct {
	Connections int      `json:"connections" example:"12"`
	Registered  int      `json:"registered"  example:"9"`
	Users       []string `json:"users,omitempty"`
} // @name StatsResponse

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse
