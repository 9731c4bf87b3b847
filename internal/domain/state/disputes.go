package state

import "time"

// DisputeHistoryCap bounds the embedded dispute lists on an aggregate. The
// oldest entries are evicted first.
const DisputeHistoryCap = 5

// Acionamento statuses.
const (
	AcionamentoPendente  = "pendente"
	AcionamentoResolvido = "resolvido"
)

// Institutional dispute vocabulary.
var AcionamentoInstitucionalTypes = []string{
	"confirmar_veracidade",
	"contestar_fato",
	"denunciar_conduta",
	"solicitar_revisao_formal",
	"registrar_ciencia",
}

func IsAcionamentoInstitucionalType(t string) bool {
	for _, known := range AcionamentoInstitucionalTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Litigio institucional statuses.
const (
	LitigioAberto                = "aberto"
	LitigioEmAnalise             = "em_analise"
	LitigioResolvidoFavoravel    = "resolvido_favoravel"
	LitigioResolvidoDesfavoravel = "resolvido_desfavoravel"
	LitigioEncerrado             = "encerrado"
)

// AcionamentoInfo is one dispute record embedded on an aggregate.
type AcionamentoInfo struct {
	LogAcionamentoEventID string    `json:"log_acionamento_event_id"`
	AcionamentoType       string    `json:"acionamento_type,omitempty"`
	Author                string    `json:"author"`
	Timestamp             time.Time `json:"timestamp"`
	Motivo                string    `json:"motivo,omitempty"`
	Status                string    `json:"status"`
}

// LitigioInstitucionalInfo is one institutional dispute record embedded on an
// aggregate. It carries its own status vocabulary and resolution fields.
type LitigioInstitucionalInfo struct {
	LogAcionamentoEventID string     `json:"log_acionamento_event_id"`
	AcionamentoType       string     `json:"acionamento_type"`
	AuthorAcionamento     string     `json:"author_acionamento"`
	TimestampAcionamento  time.Time  `json:"timestamp_acionamento"`
	Motivo                string     `json:"motivo"`
	StatusLitigio         string     `json:"status_litigio"`
	ResolucaoLogEventID   string     `json:"resolucao_log_event_id,omitempty"`
	ResolucaoTimestamp    *time.Time `json:"resolucao_timestamp,omitempty"`
	ResolucaoDetalhes     string     `json:"resolucao_detalhes,omitempty"`
}

// AppendCapped appends item keeping at most cap entries, evicting from the
// front. Mirrors a $push with $slice:-cap.
func AppendCapped[T any](list []T, item T, cap int) []T {
	list = append(list, item)
	if len(list) > cap {
		list = list[len(list)-cap:]
	}
	return list
}
