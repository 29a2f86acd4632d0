package reconciliation

// ItemAction classifies what a pass did with one listing
type ItemAction string

const (
	ActionStockUpdated ItemAction = "stock_updated"
	ActionPriceUpdated ItemAction = "price_updated"
	ActionDeleted      ItemAction = "deleted"
	ActionUnchanged    ItemAction = "unchanged"
	ActionFailed       ItemAction = "failed"
)

// ItemResult is the outcome for one listing in a pass
type ItemResult struct {
	ReferenceNumber string     `json:"reference_number"`
	Action          ItemAction `json:"action"`
	Reason          string     `json:"reason,omitempty"`
}

// PassResult summarizes one reconciliation pass
type PassResult struct {
	PassID       string       `json:"pass_id"`
	Scanned      int          `json:"scanned"`
	StockUpdated int          `json:"stock_updated"`
	PriceUpdated int          `json:"price_updated"`
	Deleted      int          `json:"deleted"`
	Unchanged    int          `json:"unchanged"`
	Failed       int          `json:"failed"`
	Halted       bool         `json:"halted"`
	HaltReason   string       `json:"halt_reason,omitempty"`
	Items        []ItemResult `json:"items"`
}

func (r *PassResult) record(ref string, action ItemAction, reason string) {
	r.Items = append(r.Items, ItemResult{ReferenceNumber: ref, Action: action, Reason: reason})
	switch action {
	case ActionStockUpdated:
		r.StockUpdated++
	case ActionPriceUpdated:
		r.PriceUpdated++
	case ActionDeleted:
		r.Deleted++
	case ActionUnchanged:
		r.Unchanged++
	case ActionFailed:
		r.Failed++
	}
}
