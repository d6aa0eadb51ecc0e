package model

import "time"

// Movement is an immutable custody transfer record.
type Movement struct {
	ID          string    `json:"id"`
	Seq         uint64    `json:"seq"`
	AssetID     string    `json:"asset_id"`
	From        Custodian `json:"from"`
	To          Custodian `json:"to"`
	PerformedBy string    `json:"performed_by"`
	Notes       string    `json:"notes,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Removal records an administrative, out-of-ledger asset removal.
type Removal struct {
	AssetID     string    `json:"asset_id"`
	Serial      string    `json:"serial"`
	LastHolder  Custodian `json:"last_holder"`
	PerformedBy string    `json:"performed_by"`
	Reason      string    `json:"reason,omitempty"`
	RemovedAt   time.Time `json:"removed_at"`
}
