package pharmacy

import (
	"time"

	"github.com/shopspring/decimal"
)

// Medicine mirrors one entry of the hospital API's medicine catalog. The
// upstream server is the source of truth; the POS only caches it.
type Medicine struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description,omitempty"`
}

// CartItem is a medicine the operator intends to bill. It exists only in
// session state and is destroyed on checkout or removal.
type CartItem struct {
	Medicine
	Quantity int `json:"quantity"`
}

// Subtotal returns price × quantity for this line.
func (ci CartItem) Subtotal() decimal.Decimal {
	return ci.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

// LineItem is one entry of a billing request.
type LineItem struct {
	MedicineID string          `json:"medicineId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
}

// BillingRequest is the create-bill payload sent to the hospital API. It
// is built at checkout time and not retained beyond the receipt snapshot.
type BillingRequest struct {
	RegistrationID string          `json:"registrationId"`
	PatientName    string          `json:"patientName"`
	Items          []LineItem      `json:"items"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaymentMethod  string          `json:"paymentMethod"`
}

// Bill is the upstream's answer to a successful billing request.
type Bill struct {
	BillID string `json:"billId"`
}

// PatientRef binds a patient to the pending bill.
type PatientRef struct {
	RegistrationID string `json:"registration_id"`
	Name           string `json:"name"`
}

// Receipt is the snapshot captured at a successful checkout, kept so the
// terminal can render and print it after the cart has been cleared.
type Receipt struct {
	BillID         string          `json:"bill_id"`
	RegistrationID string          `json:"registration_id"`
	PatientName    string          `json:"patient_name"`
	Items          []LineItem      `json:"items"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
	IssuedAt       time.Time       `json:"issued_at"`
}

// MedicineListing is a snapshot row together with how many units remain
// unreserved by the session's cart.
type MedicineListing struct {
	Medicine
	Available int `json:"available"`
}

// SessionState is the full view of one terminal session returned to the UI.
type SessionState struct {
	ID              string              `json:"id"`
	Patient         *PatientRef         `json:"patient,omitempty"`
	Items           []CartItem          `json:"items"`
	CartTotal       decimal.Decimal     `json:"cart_total"`
	CartItemCount   int                 `json:"cart_item_count"`
	SnapshotVersion int64               `json:"snapshot_version"`
	LoadedAt        time.Time           `json:"loaded_at"`
	Available       map[string]int      `json:"available"`
	InventoryError  string              `json:"inventory_error,omitempty"`
}
