package httpdto

// AcionarLogRequest opens a dispute against an existing event.
type AcionarLogRequest struct {
	TargetLogID     string                 `json:"target_log_id" binding:"required"`
	AcionamentoType string                 `json:"acionamento_type"`
	Motivo          string                 `json:"motivo"`
	Detalhes        map[string]interface{} `json:"detalhes"`
}

// AcionarLogInstitucionalRequest opens an institutional dispute against an
// existing event.
type AcionarLogInstitucionalRequest struct {
	TargetLogID      string              `json:"target_log_id" binding:"required"`
	AcionamentoType  string              `json:"acionamento_type" binding:"required"`
	MotivoDetalhado  string              `json:"motivo_detalhado" binding:"required,min=10,max=2000"`
	EvidenciasAnexas []map[string]string `json:"evidencias_anexas"`
}

// TriggerConsequenceRequest resolves a pending consequence slot.
type TriggerConsequenceRequest struct {
	TargetLogID string                 `json:"target_log_id" binding:"required"`
	Details     map[string]interface{} `json:"details"`
}

// ActionResponse reports the outcome of an action and the event it recorded.
type ActionResponse struct {
	Message    string `json:"message"`
	LogEventID string `json:"log_event_id"`
}
