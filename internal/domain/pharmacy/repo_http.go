package pharmacy

import (
	"context"
	"fmt"

	"github.com/drishti-hms/pos/internal/platform/upstream"
)

type medicineRepoHTTP struct {
	client *upstream.Client
}

// NewMedicineRepoHTTP returns a MedicineRepository backed by the hospital
// API's pharmacy endpoints.
func NewMedicineRepoHTTP(client *upstream.Client) MedicineRepository {
	return &medicineRepoHTTP{client: client}
}

func (r *medicineRepoHTTP) List(ctx context.Context) ([]Medicine, error) {
	var resp struct {
		Medicines []Medicine `json:"medicines"`
	}
	if err := r.client.GetJSON(ctx, "/pharmacy/medicines", nil, &resp); err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return resp.Medicines, nil
}

type billingRepoHTTP struct {
	client *upstream.Client
}

// NewBillingRepoHTTP returns a BillingRepository backed by the hospital
// API's billing endpoint.
func NewBillingRepoHTTP(client *upstream.Client) BillingRepository {
	return &billingRepoHTTP{client: client}
}

func (r *billingRepoHTTP) CreateBill(ctx context.Context, req *BillingRequest) (*Bill, error) {
	var bill Bill
	if err := r.client.PostJSON(ctx, "/pharmacy/billing", req, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}
