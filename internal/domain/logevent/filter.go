package logevent

import "time"

// Filter narrows a timeline query. Zero-valued fields are ignored.
type Filter struct {
	Type    string
	Author  string
	Witness string
	Channel string
	Origin  string

	Since *time.Time
	Until *time.Time

	// DataPath is a dotted path inside the data payload (e.g.
	// "itens.0.produto_id" or "target_log_id") matched for equality against
	// DataValue.
	DataPath  string
	DataValue string

	Limit  int
	Offset int

	// Ascending flips the default timestamp-descending sort.
	Ascending bool
}

// DefaultQueryLimit bounds unpaginated timeline reads.
const DefaultQueryLimit = 50
