package pharmacy

import "context"

// MedicineRepository fetches the full medicine catalog from the hospital
// API.
type MedicineRepository interface {
	List(ctx context.Context) ([]Medicine, error)
}

// BillingRepository submits a billing transaction. The upstream server
// performs the authoritative stock decrement at bill creation.
type BillingRepository interface {
	CreateBill(ctx context.Context, req *BillingRequest) (*Bill, error)
}
