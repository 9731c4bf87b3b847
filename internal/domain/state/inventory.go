package state

import "time"

// InventoryItem is the materialized current state of one product's stock,
// keyed by product id. Stock may go negative; non-negativity is a business
// policy enforced outside the core.
type InventoryItem struct {
	ProdutoID string `gorm:"primaryKey;column:produto_id" json:"produto_id"`
	Nome      string `json:"nome,omitempty"`
	Stock     int    `json:"stock"`

	Acionamentos           []AcionamentoInfo          `gorm:"type:jsonb;serializer:json" json:"acionamentos,omitempty"`
	LitigiosInstitucionais []LitigioInstitucionalInfo `gorm:"type:jsonb;serializer:json" json:"litigios_institucionais,omitempty"`

	Meta map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"meta,omitempty"`

	LastLogEventID string    `gorm:"not null" json:"last_log_event_id"`
	LastUpdatedAt  time.Time `gorm:"not null" json:"last_updated_at"`
}

func (InventoryItem) TableName() string {
	return "current_state_inventory"
}

// Touch bumps the causal pointers to the event that produced this mutation.
func (i *InventoryItem) Touch(eventID string, at time.Time) {
	i.LastLogEventID = eventID
	i.LastUpdatedAt = at
}

func (i *InventoryItem) ensureMeta() map[string]interface{} {
	if i.Meta == nil {
		i.Meta = make(map[string]interface{})
	}
	return i.Meta
}

// RegisterAcionamento mirrors Order.RegisterAcionamento for inventory
// aggregates targeted by a dispute.
func (i *InventoryItem) RegisterAcionamento(info AcionamentoInfo, eventID string, at time.Time) {
	i.Acionamentos = AppendCapped(i.Acionamentos, info, DisputeHistoryCap)
	meta := i.ensureMeta()
	meta[MetaHasPendingAcionamentos] = true
	if info.AcionamentoType != "" {
		statuses, _ := meta[MetaAcionamentoStatus].(map[string]interface{})
		if statuses == nil {
			statuses = make(map[string]interface{})
		}
		statuses[metaKey(info.AcionamentoType)] = info.Status
		meta[MetaAcionamentoStatus] = statuses
	}
	i.Touch(eventID, at)
}

// RegisterLitigio mirrors Order.RegisterLitigio for inventory aggregates.
func (i *InventoryItem) RegisterLitigio(info LitigioInstitucionalInfo, eventID string, at time.Time) {
	i.LitigiosInstitucionais = AppendCapped(i.LitigiosInstitucionais, info, DisputeHistoryCap)
	meta := i.ensureMeta()
	meta[MetaHasActiveLitigio] = true
	statuses, _ := meta[MetaLitigioStatus].(map[string]interface{})
	if statuses == nil {
		statuses = make(map[string]interface{})
	}
	statuses[metaKey(info.AcionamentoType)] = info.StatusLitigio
	meta[MetaLitigioStatus] = statuses
	i.Touch(eventID, at)
}
