package models

import "time"

// Payment stores the proof of payment attached to a request.
type Payment struct {
	PaymentID      int64     `db:"payment_id" json:"paymentId"`
	RequestID      int64     `db:"request_id" json:"requestId"`
	ProofOfPayment string    `db:"proof_of_payment" json:"proofOfPayment"`
	OriginalName   string    `db:"original_name" json:"originalName"`
	ContentType    string    `db:"content_type" json:"contentType"`
	SizeBytes      int64     `db:"size_bytes" json:"sizeBytes"`
	Remarks        *string   `db:"remarks" json:"remarks,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	DownloadURL    string    `db:"-" json:"downloadUrl,omitempty"`
}
