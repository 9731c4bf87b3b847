package handler

import (
	"net/http"
	"strconv"
	"time"

	"logline-fusion/internal/domain/logevent"
	"logline-fusion/internal/middleware"
	"logline-fusion/internal/services"
	"logline-fusion/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type LogHandler struct {
	service *services.LogService
}

func NewLogHandler(service *services.LogService) *LogHandler {
	return &LogHandler{service: service}
}

// Append records one producer-supplied event draft.
func (h *LogHandler) Append(c *gin.Context) {
	var req httpdto.AppendEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	author := req.Author
	if author == "" {
		author, _ = middleware.ActorFromContext(c.Request.Context())
	}
	if author == "" {
		author = "user:anonymous"
	}
	witness := req.Witness
	if witness == "" {
		witness = "api_endpoint:/api/v1/logs"
	}

	draft := &logevent.LogEvent{
		ID:      req.ID,
		Type:    req.Type,
		Author:  author,
		Witness: witness,
		Channel: req.Channel,
		Origin:  req.Origin,
		Data:    req.Data,
		Meta:    req.Meta,
	}
	if req.Timestamp != nil {
		draft.Timestamp = *req.Timestamp
	}
	if req.Consequence != nil {
		draft.Consequence = logevent.Consequence{
			Type:    req.Consequence.Type,
			Status:  logevent.ConsequenceAwaitingTrigger,
			Details: req.Consequence.Details,
		}
	}

	recorded, err := h.service.RecordEvent(c.Request.Context(), draft)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(recorded))
}

// GetByID returns one stored event.
func (h *LogHandler) GetByID(c *gin.Context) {
	event, err := h.service.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(event))
}

// Query runs a filtered timeline read.
func (h *LogHandler) Query(c *gin.Context) {
	f := logevent.Filter{
		Type:      c.Query("type"),
		Author:    c.Query("author"),
		Witness:   c.Query("witness"),
		Channel:   c.Query("channel"),
		Origin:    c.Query("origin"),
		DataPath:  c.Query("data_path"),
		DataValue: c.Query("data_value"),
		Ascending: c.Query("order") == "asc",
	}

	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid since", "INVALID_REQUEST"))
			return
		}
		f.Since = &t
	}
	if v := c.Query("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid until", "INVALID_REQUEST"))
			return
		}
		f.Until = &t
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid limit", "INVALID_REQUEST"))
			return
		}
		f.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid offset", "INVALID_REQUEST"))
			return
		}
		f.Offset = n
	}

	events, total, err := h.service.QueryEvents(c.Request.Context(), f)
	if err != nil {
		_ = c.Error(err)
		return
	}

	limit := f.Limit
	if limit <= 0 {
		limit = logevent.DefaultQueryLimit
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.QueryEventsResponse[logevent.LogEvent]{
		Events: events,
		Total:  total,
		Limit:  limit,
		Offset: f.Offset,
	}))
}
