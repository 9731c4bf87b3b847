package logevent

import (
	"time"

	fusion_errors "logline-fusion/pkg/errors"
)

// Event type discriminators handled by the projector. Producers may append
// other types; those project as a no-op.
const (
	TypeRegistrarVenda           = "registrar_venda"
	TypeEntradaEstoque           = "entrada_estoque"
	TypeLogAcionado              = "log_acionado"
	TypeLogAcionadoInstitucional = "log_acionado_institucionalmente"
	TypeDespachoCriado           = "despacho_criado"
	TypeTriggeredConsequence     = "triggered_consequence"
)

// Consequence lifecycle.
const (
	ConsequenceAwaitingTrigger = "awaiting_trigger"
	ConsequenceTriggered       = "triggered"
)

// Well-known authors and provenance tags for system-originated events.
const (
	SystemConsequenceAuthor = "system:state_consequence_engine"
	SystemInternalChannel   = "system_internal"
)

// Meta keys interpreted by the core. Everything else in Meta is opaque.
const (
	MetaTraceID        = "trace_id"
	MetaConversationID = "conversation_id"
	MetaTriggeredByLog = "triggered_by_log_id"
)

// MaxClockSkew bounds how far in the future a caller-supplied timestamp may
// be before the draft is rejected.
const MaxClockSkew = 5 * time.Minute

// Consequence is the optional deferred-obligation slot attached to an event.
// It is the only part of a stored event that may change, and only through the
// one-time awaiting_trigger -> triggered transition.
type Consequence struct {
	Type                  string                 `gorm:"column:type" json:"type,omitempty"`
	Status                string                 `gorm:"column:status" json:"status,omitempty"`
	Details               map[string]interface{} `gorm:"column:details;type:jsonb;serializer:json" json:"details,omitempty"`
	TriggeredByLogEventID string                 `gorm:"column:triggered_by" json:"triggered_by_log_event_id,omitempty"`
	TriggeredAt           *time.Time             `gorm:"column:triggered_at" json:"triggered_at,omitempty"`
}

func (c Consequence) IsZero() bool {
	return c.Type == ""
}

// LogEvent is an immutable fact in the append-only log. Core fields (id,
// timestamp, type, author, witness, data) are never updated after insert;
// the repository exposes no API that could touch them.
type LogEvent struct {
	ID          string                 `gorm:"primaryKey" json:"id"`
	Timestamp   time.Time              `gorm:"not null;index" json:"timestamp"`
	Type        string                 `gorm:"not null;index" json:"type"`
	Author      string                 `gorm:"not null;index" json:"author"`
	Witness     string                 `gorm:"not null" json:"witness"`
	Channel     string                 `gorm:"index" json:"channel,omitempty"`
	Origin      string                 `json:"origin,omitempty"`
	Data        map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"data"`
	Consequence Consequence            `gorm:"embedded;embeddedPrefix:consequence_" json:"consequence,omitzero"`
	Meta        map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"meta,omitempty"`
}

func (LogEvent) TableName() string {
	return "log_events"
}

// HasPendingConsequence reports whether the event carries an unresolved
// consequence slot.
func (e *LogEvent) HasPendingConsequence() bool {
	return e.Consequence.Type != "" && e.Consequence.Status == ConsequenceAwaitingTrigger
}

// TraceID returns the correlation id carried in meta, if any.
func (e *LogEvent) TraceID() string {
	if e.Meta == nil {
		return ""
	}
	if v, ok := e.Meta[MetaTraceID].(string); ok {
		return v
	}
	return ""
}

// ConversationID returns the multi-turn grouping id carried in meta, if any.
func (e *LogEvent) ConversationID() string {
	if e.Meta == nil {
		return ""
	}
	if v, ok := e.Meta[MetaConversationID].(string); ok {
		return v
	}
	return ""
}

// Prepare fills server-assigned fields on a draft and validates the parts the
// store itself cares about. Payload shape validation belongs to the caller.
func (e *LogEvent) Prepare(now time.Time) error {
	if e.Type == "" || e.Author == "" || e.Witness == "" {
		return fusion_errors.ErrInvalidInput
	}
	if e.ID == "" {
		e.ID = NewEventID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now.UTC()
	} else {
		e.Timestamp = e.Timestamp.UTC()
		if e.Timestamp.After(now.Add(MaxClockSkew)) {
			return fusion_errors.ErrInvalidInput
		}
	}
	if e.Consequence.Type != "" && e.Consequence.Status == "" {
		e.Consequence.Status = ConsequenceAwaitingTrigger
	}
	return nil
}
