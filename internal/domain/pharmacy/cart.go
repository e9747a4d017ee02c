package pharmacy

import "github.com/shopspring/decimal"

// MutationResult reports what a cart mutation did. The original UI
// swallowed exhausted-stock adds as silent no-ops; here every outcome is
// explicit so callers can tell "at the limit" from "nothing happened".
type MutationResult int

const (
	MutationOK MutationResult = iota
	MutationInsufficientStock
	MutationUnknownMedicine
)

func (r MutationResult) String() string {
	switch r {
	case MutationOK:
		return "ok"
	case MutationInsufficientStock:
		return "insufficient_stock"
	case MutationUnknownMedicine:
		return "unknown_medicine"
	default:
		return "unknown"
	}
}

// Cart is the ordered ledger of items the operator intends to bill. Every
// mutation reserves against, or credits back into, the snapshot's
// available pool, so the conservation invariant holds between calls. The
// snapshotVersion records which catalog load the reservations were
// computed against.
type Cart struct {
	snapshotVersion int64
	items           []*CartItem
	index           map[string]*CartItem
}

func newCart(version int64) *Cart {
	return &Cart{
		snapshotVersion: version,
		index:           make(map[string]*CartItem),
	}
}

// SnapshotVersion is the catalog version this cart reserved against.
func (c *Cart) SnapshotVersion() int64 { return c.snapshotVersion }

// Empty reports whether the ledger holds no items.
func (c *Cart) Empty() bool { return len(c.items) == 0 }

// Items returns the ledger entries in insertion order.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	for i, it := range c.items {
		out[i] = *it
	}
	return out
}

// Quantity returns the reserved quantity for id, zero if absent.
func (c *Cart) Quantity(id string) int {
	if it, ok := c.index[id]; ok {
		return it.Quantity
	}
	return 0
}

// Total is Σ price×quantity, recomputed on every read.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ItemCount is Σ quantity, recomputed on every read.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Add reserves one more unit of id. At zero availability nothing changes
// and InsufficientStock is reported.
func (c *Cart) Add(snap *Snapshot, id string) MutationResult {
	med, ok := snap.Medicine(id)
	if !ok {
		return MutationUnknownMedicine
	}
	if snap.AvailableFor(id) <= 0 {
		return MutationInsufficientStock
	}
	if it, exists := c.index[id]; exists {
		it.Quantity++
	} else {
		it := &CartItem{Medicine: med, Quantity: 1}
		c.items = append(c.items, it)
		c.index[id] = it
	}
	snap.reserve(id, 1)
	return MutationOK
}

// Remove deletes the item and credits its full quantity back. Idempotent
// when id is absent.
func (c *Cart) Remove(snap *Snapshot, id string) {
	it, ok := c.index[id]
	if !ok {
		return
	}
	snap.release(id, it.Quantity)
	delete(c.index, id)
	for i, cur := range c.items {
		if cur.Medicine.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
}

// SetQuantity moves the reservation for id to n. n <= 0 behaves as
// Remove. A positive delta larger than the available pool rejects the
// whole operation; there is no partial application.
func (c *Cart) SetQuantity(snap *Snapshot, id string, n int) MutationResult {
	if n <= 0 {
		c.Remove(snap, id)
		return MutationOK
	}
	it, ok := c.index[id]
	if !ok {
		return MutationUnknownMedicine
	}
	delta := n - it.Quantity
	if delta > 0 {
		if delta > snap.AvailableFor(id) {
			return MutationInsufficientStock
		}
		snap.reserve(id, delta)
	} else if delta < 0 {
		snap.release(id, -delta)
	}
	it.Quantity = n
	return MutationOK
}

// Clear drops every item without crediting anything back. Used after a
// successful checkout, where the next snapshot load re-seeds availability
// from server-confirmed stock anyway.
func (c *Cart) Clear() {
	c.items = nil
	c.index = make(map[string]*CartItem)
}

// Rebase re-reserves this cart against a freshly loaded snapshot: prices
// and names are refreshed from the catalog, quantities are clamped to the
// new stock, and items the server no longer lists are dropped. Called
// after every reload so stale reservations never outlive a load.
func (c *Cart) Rebase(snap *Snapshot) {
	kept := c.items
	c.Clear()
	c.snapshotVersion = snap.Version()
	for _, old := range kept {
		med, ok := snap.Medicine(old.Medicine.ID)
		if !ok {
			continue
		}
		qty := old.Quantity
		if avail := snap.AvailableFor(med.ID); qty > avail {
			qty = avail
		}
		if qty <= 0 {
			continue
		}
		it := &CartItem{Medicine: med, Quantity: qty}
		c.items = append(c.items, it)
		c.index[med.ID] = it
		snap.reserve(med.ID, qty)
	}
}

// LineItems serializes the ledger for a billing request.
func (c *Cart) LineItems() []LineItem {
	out := make([]LineItem, len(c.items))
	for i, it := range c.items {
		out[i] = LineItem{
			MedicineID: it.Medicine.ID,
			Name:       it.Medicine.Name,
			Quantity:   it.Quantity,
			Price:      it.Price,
			Total:      it.Subtotal(),
		}
	}
	return out
}
