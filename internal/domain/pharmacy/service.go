package pharmacy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("pos session not found")
	ErrNoPatient       = errors.New("no patient selected")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrNoReceipt       = errors.New("no receipt available")
)

// Session is the state of one POS terminal: an inventory snapshot, the
// cart reserving against it, the bound patient, and the last receipt.
// All access goes through the session mutex, which stands in for the
// single-threaded event loop the original UI relied on.
type Session struct {
	ID uuid.UUID

	mu         sync.Mutex
	snapshot   *Snapshot
	cart       *Cart
	patient    *PatientRef
	receipt    *Receipt
	invErr     string
	lastActive time.Time
}

// Service owns every POS session and orchestrates inventory loads, cart
// mutations, and checkout against the upstream repositories.
type Service struct {
	medicines MedicineRepository
	billing   BillingRepository

	paymentMethod string
	sessionTTL    time.Duration
	version       atomic.Int64

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewService(meds MedicineRepository, billing BillingRepository) *Service {
	return &Service{
		medicines:     meds,
		billing:       billing,
		paymentMethod: "cash",
		sessionTTL:    2 * time.Hour,
		sessions:      make(map[uuid.UUID]*Session),
	}
}

// SetPaymentMethod overrides the default payment method stamped on bills
// when a checkout request does not name one.
func (s *Service) SetPaymentMethod(method string) {
	if method != "" {
		s.paymentMethod = method
	}
}

// SetSessionTTL overrides how long an idle session survives.
func (s *Service) SetSessionTTL(ttl time.Duration) {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
}

// OpenSession creates a terminal session and performs the initial
// inventory load. A failed load still opens the session: the snapshot is
// empty and the error is carried in the state for the UI, matching the
// fail-silent-with-flag posture of the original screen. No retry happens.
func (s *Service) OpenSession(ctx context.Context) *SessionState {
	sess := &Session{
		ID:         uuid.New(),
		snapshot:   emptySnapshot(),
		cart:       newCart(0),
		lastActive: time.Now(),
	}

	sess.mu.Lock()
	_ = s.reloadLocked(ctx, sess)
	state := s.stateLocked(sess)
	sess.mu.Unlock()

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return state
}

// CloseSession discards a session. Idempotent.
func (s *Service) CloseSession(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// State returns the current view of a session.
func (s *Service) State(id uuid.UUID) (*SessionState, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.stateLocked(sess), nil
}

// RefreshInventory re-fetches the catalog and rebases the cart onto the
// fresh snapshot. This is the manual reload of the original screen.
func (s *Service) RefreshInventory(ctx context.Context, id uuid.UUID) (*SessionState, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.reloadLocked(ctx, sess); err != nil {
		return nil, err
	}
	return s.stateLocked(sess), nil
}

// Medicines lists the session's snapshot with per-id availability,
// filtered by an optional name/category substring.
func (s *Service) Medicines(id uuid.UUID, query string, limit, offset int) ([]MedicineListing, int, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, 0, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	listings := sess.snapshot.Listings(query)
	total := len(listings)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return listings[offset:end], total, nil
}

// AddToCart reserves one unit of the medicine for the session's cart.
func (s *Service) AddToCart(id uuid.UUID, medicineID string) (MutationResult, *SessionState, error) {
	sess, err := s.get(id)
	if err != nil {
		return MutationOK, nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	res := sess.cart.Add(sess.snapshot, medicineID)
	return res, s.stateLocked(sess), nil
}

// SetQuantity moves the cart quantity for a medicine; zero or negative
// removes it.
func (s *Service) SetQuantity(id uuid.UUID, medicineID string, qty int) (MutationResult, *SessionState, error) {
	sess, err := s.get(id)
	if err != nil {
		return MutationOK, nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	res := sess.cart.SetQuantity(sess.snapshot, medicineID, qty)
	return res, s.stateLocked(sess), nil
}

// RemoveFromCart deletes the medicine from the cart, crediting its
// reservation back. Idempotent.
func (s *Service) RemoveFromCart(id uuid.UUID, medicineID string) (*SessionState, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.cart.Remove(sess.snapshot, medicineID)
	return s.stateLocked(sess), nil
}

// SelectPatient binds a registration id and display name to the pending
// bill.
func (s *Service) SelectPatient(id uuid.UUID, ref PatientRef) error {
	if ref.RegistrationID == "" {
		return fmt.Errorf("registration_id is required")
	}
	if ref.Name == "" {
		return fmt.Errorf("name is required")
	}
	sess, err := s.get(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.patient = &ref
	sess.mu.Unlock()
	return nil
}

// Checkout serializes the cart into one billing request and submits it.
//
// Success clears the cart unconditionally, captures the receipt snapshot,
// and reloads the inventory so local reservations re-sync with
// server-confirmed stock. Failure keeps the cart for retry but still
// reloads and rebases, so availability never lingers in its optimistic
// pre-checkout state.
func (s *Service) Checkout(ctx context.Context, id uuid.UUID, paymentMethod string) (*Receipt, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.patient == nil {
		return nil, ErrNoPatient
	}
	if sess.cart.Empty() {
		return nil, ErrEmptyCart
	}

	if paymentMethod == "" {
		paymentMethod = s.paymentMethod
	}
	req := &BillingRequest{
		RegistrationID: sess.patient.RegistrationID,
		PatientName:    sess.patient.Name,
		Items:          sess.cart.LineItems(),
		TotalAmount:    sess.cart.Total(),
		PaymentMethod:  paymentMethod,
	}

	bill, err := s.billing.CreateBill(ctx, req)
	if err != nil {
		_ = s.reloadLocked(ctx, sess)
		return nil, fmt.Errorf("create bill: %w", err)
	}

	receipt := &Receipt{
		BillID:         bill.BillID,
		RegistrationID: req.RegistrationID,
		PatientName:    req.PatientName,
		Items:          req.Items,
		TotalAmount:    req.TotalAmount,
		PaymentMethod:  req.PaymentMethod,
		IssuedAt:       time.Now().UTC(),
	}
	sess.receipt = receipt
	sess.cart.Clear()
	sess.patient = nil
	_ = s.reloadLocked(ctx, sess)
	return receipt, nil
}

// Receipt returns the snapshot of the last successful checkout.
func (s *Service) Receipt(id uuid.UUID) (*Receipt, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.receipt == nil {
		return nil, ErrNoReceipt
	}
	return sess.receipt, nil
}

// SweepExpired evicts idle sessions until ctx is cancelled.
func (s *Service) SweepExpired(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.sessionTTL)
			s.mu.Lock()
			for id, sess := range s.sessions {
				sess.mu.Lock()
				idle := sess.lastActive.Before(cutoff)
				sess.mu.Unlock()
				if idle {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Service) get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	sess.lastActive = time.Now()
	sess.mu.Unlock()
	return sess, nil
}

// reloadLocked replaces the session's snapshot from the upstream catalog
// and rebases the cart onto it. Caller holds sess.mu.
func (s *Service) reloadLocked(ctx context.Context, sess *Session) error {
	meds, err := s.medicines.List(ctx)
	if err != nil {
		sess.invErr = err.Error()
		return fmt.Errorf("load inventory: %w", err)
	}
	snap := newSnapshot(s.version.Add(1), meds)
	sess.cart.Rebase(snap)
	sess.snapshot = snap
	sess.invErr = ""
	return nil
}

// stateLocked builds the UI view. Caller holds sess.mu.
func (s *Service) stateLocked(sess *Session) *SessionState {
	return &SessionState{
		ID:              sess.ID.String(),
		Patient:         sess.patient,
		Items:           sess.cart.Items(),
		CartTotal:       sess.cart.Total(),
		CartItemCount:   sess.cart.ItemCount(),
		SnapshotVersion: sess.snapshot.Version(),
		LoadedAt:        sess.snapshot.LoadedAt(),
		Available:       sess.snapshot.AvailableMap(),
		InventoryError:  sess.invErr,
	}
}
