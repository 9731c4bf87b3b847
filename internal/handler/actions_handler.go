package handler

import (
	"fmt"
	"net/http"

	"logline-fusion/internal/domain/logevent"
	"logline-fusion/internal/domain/state"
	"logline-fusion/internal/middleware"
	"logline-fusion/internal/services"
	"logline-fusion/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type ActionsHandler struct {
	service *services.LogService
}

func NewActionsHandler(service *services.LogService) *ActionsHandler {
	return &ActionsHandler{service: service}
}

// AcionarLog opens a dispute referencing an existing event.
func (h *ActionsHandler) AcionarLog(c *gin.Context) {
	var req httpdto.AcionarLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	if _, err := h.service.GetEvent(c.Request.Context(), req.TargetLogID); err != nil {
		_ = c.Error(err)
		return
	}

	draft := &logevent.LogEvent{
		Type:    logevent.TypeLogAcionado,
		Author:  actorOr(c, "user:anonymous"),
		Witness: "action_endpoint:/api/v1/actions/acionar_log",
		Channel: "fusion_litigio_panel",
		Origin:  "Acionamento:" + req.AcionamentoType,
		Data: map[string]interface{}{
			"target_log_id":    req.TargetLogID,
			"acionamento_type": req.AcionamentoType,
			"motivo":           req.Motivo,
			"detalhes":         req.Detalhes,
		},
		Meta: map[string]interface{}{
			"references_original_log_id": req.TargetLogID,
		},
	}

	recorded, err := h.service.RecordEvent(c.Request.Context(), draft)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ActionResponse{
		Message:    fmt.Sprintf("Acionamento para log %q registrado", req.TargetLogID),
		LogEventID: recorded.ID,
	}))
}

// AcionarLogInstitucional opens an institutional dispute referencing an
// existing event.
func (h *ActionsHandler) AcionarLogInstitucional(c *gin.Context) {
	var req httpdto.AcionarLogInstitucionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if !state.IsAcionamentoInstitucionalType(req.AcionamentoType) {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("unknown acionamento_type", "INVALID_REQUEST"))
		return
	}

	if _, err := h.service.GetEvent(c.Request.Context(), req.TargetLogID); err != nil {
		_ = c.Error(err)
		return
	}

	data := map[string]interface{}{
		"target_log_id":    req.TargetLogID,
		"acionamento_type": req.AcionamentoType,
		"motivo_detalhado": req.MotivoDetalhado,
	}
	if len(req.EvidenciasAnexas) > 0 {
		data["evidencias_anexas"] = req.EvidenciasAnexas
	}

	draft := &logevent.LogEvent{
		Type:    logevent.TypeLogAcionadoInstitucional,
		Author:  actorOr(c, "user:anonymous"),
		Witness: "action_endpoint:/api/v1/actions/acionar_log_institucional",
		Channel: "fusion_litigio_panel",
		Origin:  "AcionamentoInstitucional:" + req.AcionamentoType,
		Data:    data,
		Meta: map[string]interface{}{
			"references_original_log_id": req.TargetLogID,
		},
	}

	recorded, err := h.service.RecordEvent(c.Request.Context(), draft)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ActionResponse{
		Message:    fmt.Sprintf("Acionamento institucional %q para log %q registrado", req.AcionamentoType, req.TargetLogID),
		LogEventID: recorded.ID,
	}))
}

// TriggerConsequence resolves a pending consequence slot on an event.
func (h *ActionsHandler) TriggerConsequence(c *gin.Context) {
	var req httpdto.TriggerConsequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	recorded, err := h.service.TriggerConsequence(
		c.Request.Context(),
		req.TargetLogID,
		actorOr(c, "user:anonymous"),
		"action_endpoint:/api/v1/actions/trigger_consequence",
		req.Details,
	)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ActionResponse{
		Message:    fmt.Sprintf("Consequência do log %q resolvida", req.TargetLogID),
		LogEventID: recorded.ID,
	}))
}

func actorOr(c *gin.Context, fallback string) string {
	if actor, ok := middleware.ActorFromContext(c.Request.Context()); ok {
		return actor
	}
	return fallback
}
