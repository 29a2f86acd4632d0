package registration

// ItemStatus classifies how one product fared in a batch
type ItemStatus string

const (
	ItemSubmitted ItemStatus = "submitted"
	ItemSkipped   ItemStatus = "skipped"
	ItemFailed    ItemStatus = "failed"
)

// ItemResult is the outcome for one product in a batch
type ItemResult struct {
	ReferenceNumber string     `json:"reference_number"`
	Status          ItemStatus `json:"status"`
	Reason          string     `json:"reason,omitempty"`
}

// BatchResult summarizes one registration batch run
type BatchResult struct {
	BatchID    string       `json:"batch_id"`
	Candidates int          `json:"candidates"`
	Submitted  int          `json:"submitted"`
	Skipped    int          `json:"skipped"`
	Failed     int          `json:"failed"`
	Halted     bool         `json:"halted"`
	HaltReason string       `json:"halt_reason,omitempty"`
	Items      []ItemResult `json:"items"`
}

func (r *BatchResult) record(ref string, status ItemStatus, reason string) {
	r.Items = append(r.Items, ItemResult{ReferenceNumber: ref, Status: status, Reason: reason})
	switch status {
	case ItemSubmitted:
		r.Submitted++
	case ItemSkipped:
		r.Skipped++
	case ItemFailed:
		r.Failed++
	}
}

// WebhookStatus classifies how a webhook delivery was handled
type WebhookStatus string

const (
	WebhookApplied   WebhookStatus = "applied"
	WebhookDuplicate WebhookStatus = "duplicate"
	WebhookUnmatched WebhookStatus = "unmatched"
)

// WebhookResult is the outcome of processing one webhook delivery
type WebhookResult struct {
	Status          WebhookStatus `json:"status"`
	EventType       string        `json:"event_type"`
	ReferenceNumber string        `json:"reference_number"`
}
