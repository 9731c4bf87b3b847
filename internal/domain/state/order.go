package state

import (
	"strings"
	"time"
)

// Order statuses.
const (
	OrderRegistrada = "registrada"
)

// Meta keys set by the projector on aggregates.
const (
	MetaHasPendingAcionamentos = "has_pending_acionamentos"
	MetaHasActiveLitigio       = "has_active_litigio"
	MetaAcionamentoStatus      = "acionamento_status"
	MetaLitigioStatus          = "litigio_status"
	MetaLastDespachoEventID    = "last_despacho_event_id"
)

// OrderItem is one line item of a registered sale.
type OrderItem struct {
	ProdutoID     string  `json:"produto_id"`
	Nome          string  `json:"nome,omitempty"`
	Quantidade    int     `json:"quantidade"`
	PrecoUnitario float64 `json:"preco_unitario"`
}

// Order is the materialized current state of one order, keyed by its natural
// id. It is a cache over the event log: replaying the order's events in
// timestamp order must reproduce it.
type Order struct {
	OrderID    string      `gorm:"primaryKey;column:order_id" json:"order_id"`
	Status     string      `gorm:"not null" json:"status"`
	Cliente    string      `json:"cliente,omitempty"`
	ItemCount  int         `json:"item_count"`
	ValorTotal float64     `json:"valor_total"`
	Itens      []OrderItem `gorm:"type:jsonb;serializer:json" json:"itens,omitempty"`

	Acionamentos           []AcionamentoInfo          `gorm:"type:jsonb;serializer:json" json:"acionamentos,omitempty"`
	LitigiosInstitucionais []LitigioInstitucionalInfo `gorm:"type:jsonb;serializer:json" json:"litigios_institucionais,omitempty"`

	Meta map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"meta,omitempty"`

	LastLogEventID string    `gorm:"not null" json:"last_log_event_id"`
	LastUpdatedAt  time.Time `gorm:"not null" json:"last_updated_at"`
}

func (Order) TableName() string {
	return "current_state_orders"
}

// Touch bumps the causal pointers to the event that produced this mutation.
func (o *Order) Touch(eventID string, at time.Time) {
	o.LastLogEventID = eventID
	o.LastUpdatedAt = at
}

func (o *Order) ensureMeta() map[string]interface{} {
	if o.Meta == nil {
		o.Meta = make(map[string]interface{})
	}
	return o.Meta
}

// RegisterAcionamento appends a dispute record (capped) and raises the
// pending flag plus the per-type status entry.
func (o *Order) RegisterAcionamento(info AcionamentoInfo, eventID string, at time.Time) {
	o.Acionamentos = AppendCapped(o.Acionamentos, info, DisputeHistoryCap)
	meta := o.ensureMeta()
	meta[MetaHasPendingAcionamentos] = true
	if info.AcionamentoType != "" {
		statuses, _ := meta[MetaAcionamentoStatus].(map[string]interface{})
		if statuses == nil {
			statuses = make(map[string]interface{})
		}
		statuses[metaKey(info.AcionamentoType)] = info.Status
		meta[MetaAcionamentoStatus] = statuses
	}
	o.Touch(eventID, at)
}

// RegisterLitigio appends an institutional dispute record (capped) and raises
// the active-litigio flag plus the per-type status entry.
func (o *Order) RegisterLitigio(info LitigioInstitucionalInfo, eventID string, at time.Time) {
	o.LitigiosInstitucionais = AppendCapped(o.LitigiosInstitucionais, info, DisputeHistoryCap)
	meta := o.ensureMeta()
	meta[MetaHasActiveLitigio] = true
	statuses, _ := meta[MetaLitigioStatus].(map[string]interface{})
	if statuses == nil {
		statuses = make(map[string]interface{})
	}
	statuses[metaKey(info.AcionamentoType)] = info.StatusLitigio
	meta[MetaLitigioStatus] = statuses
	o.Touch(eventID, at)
}

// metaKey makes a dispute type safe for use as a flat meta map key.
func metaKey(acionamentoType string) string {
	return strings.ReplaceAll(acionamentoType, ".", "_")
}
