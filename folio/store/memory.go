// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/folio-engine/folio"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is a folio.TxStore held in maps. Rows keep insertion order.
type Memory struct {
	mu sync.RWMutex
	st *state
}

func NewMemory() *Memory {
	return &Memory{st: newState()}
}

// table is an insertion-ordered map.
type table[K comparable, V any] struct {
	rows  map[K]V
	order []K
}

func newTable[K comparable, V any]() *table[K, V] {
	return &table[K, V]{rows: make(map[K]V)}
}

func (t *table[K, V]) get(k K) (V, bool) {
	v, ok := t.rows[k]
	return v, ok
}

func (t *table[K, V]) put(k K, v V) {
	if _, ok := t.rows[k]; !ok {
		t.order = append(t.order, k)
	}
	t.rows[k] = v
}

func (t *table[K, V]) remove(k K) {
	if _, ok := t.rows[k]; !ok {
		return
	}
	delete(t.rows, k)
	for i, key := range t.order {
		if key == k {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *table[K, V]) list(match func(V) bool) []V {
	var out []V
	for _, k := range t.order {
		if v := t.rows[k]; match == nil || match(v) {
			out = append(out, v)
		}
	}
	return out
}

func (t *table[K, V]) clone() *table[K, V] {
	c := &table[K, V]{rows: make(map[K]V, len(t.rows)), order: append([]K(nil), t.order...)}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	return c
}

type state struct {
	transactions *table[folio.TransactionID, folio.Transaction]
	folios       *table[folio.FolioID, folio.Folio]
	reservations *table[folio.ReservationID, folio.Reservation]
	groups       *table[folio.GroupBookingID, folio.GroupBooking]
	rooms        *table[folio.RoomID, folio.Room]
	roomTypes    *table[string, folio.RoomType]
	ratePlans    *table[string, folio.RatePlan]
	items        *table[string, folio.Item]
	guests       *table[folio.GuestID, folio.Guest]
	companies    *table[folio.CompanyID, folio.Company]
	reasons      *table[string, folio.AllowanceReason]
}

func newState() *state {
	return &state{
		transactions: newTable[folio.TransactionID, folio.Transaction](),
		folios:       newTable[folio.FolioID, folio.Folio](),
		reservations: newTable[folio.ReservationID, folio.Reservation](),
		groups:       newTable[folio.GroupBookingID, folio.GroupBooking](),
		rooms:        newTable[folio.RoomID, folio.Room](),
		roomTypes:    newTable[string, folio.RoomType](),
		ratePlans:    newTable[string, folio.RatePlan](),
		items:        newTable[string, folio.Item](),
		guests:       newTable[folio.GuestID, folio.Guest](),
		companies:    newTable[folio.CompanyID, folio.Company](),
		reasons:      newTable[string, folio.AllowanceReason](),
	}
}

func (s *state) clone() *state {
	return &state{
		transactions: s.transactions.clone(),
		folios:       s.folios.clone(),
		reservations: s.reservations.clone(),
		groups:       s.groups.clone(),
		rooms:        s.rooms.clone(),
		roomTypes:    s.roomTypes.clone(),
		ratePlans:    s.ratePlans.clone(),
		items:        s.items.clone(),
		guests:       s.guests.clone(),
		companies:    s.companies.clone(),
		reasons:      s.reasons.clone(),
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// The lock is held for the whole of fn, so concurrent triggers serialize.
func (m *Memory) WithTx(_ context.Context, fn func(folio.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	if err := fn(&view{st: m.st}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

// read runs fn under the read lock against a lock-free view.
func read[T any](m *Memory, fn func(v *view) (T, error)) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&view{st: m.st})
}

// write runs fn under the write lock against a lock-free view.
func (m *Memory) write(fn func(v *view) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&view{st: m.st})
}

// =============================================================================
// LOCKED DELEGATES - Memory satisfies folio.Store by locking around a view
// =============================================================================

func (m *Memory) InsertTransaction(ctx context.Context, tx folio.Transaction) error {
	return m.write(func(v *view) error { return v.InsertTransaction(ctx, tx) })
}

func (m *Memory) UpdateTransaction(ctx context.Context, tx folio.Transaction) error {
	return m.write(func(v *view) error { return v.UpdateTransaction(ctx, tx) })
}

func (m *Memory) DeleteTransaction(ctx context.Context, id folio.TransactionID) error {
	return m.write(func(v *view) error { return v.DeleteTransaction(ctx, id) })
}

func (m *Memory) GetTransaction(ctx context.Context, id folio.TransactionID) (folio.Transaction, error) {
	return read(m, func(v *view) (folio.Transaction, error) { return v.GetTransaction(ctx, id) })
}

func (m *Memory) ListTransactions(ctx context.Context, f folio.TransactionFilter) ([]folio.Transaction, error) {
	return read(m, func(v *view) ([]folio.Transaction, error) { return v.ListTransactions(ctx, f) })
}

func (m *Memory) SumTransactions(ctx context.Context, id folio.FolioID) (folio.Totals, error) {
	return read(m, func(v *view) (folio.Totals, error) { return v.SumTransactions(ctx, id) })
}

func (m *Memory) InsertFolio(ctx context.Context, f folio.Folio) error {
	return m.write(func(v *view) error { return v.InsertFolio(ctx, f) })
}

func (m *Memory) UpdateFolio(ctx context.Context, f folio.Folio) error {
	return m.write(func(v *view) error { return v.UpdateFolio(ctx, f) })
}

func (m *Memory) DeleteFolio(ctx context.Context, id folio.FolioID) error {
	return m.write(func(v *view) error { return v.DeleteFolio(ctx, id) })
}

func (m *Memory) GetFolio(ctx context.Context, id folio.FolioID) (folio.Folio, error) {
	return read(m, func(v *view) (folio.Folio, error) { return v.GetFolio(ctx, id) })
}

func (m *Memory) ListFolios(ctx context.Context, f folio.FolioFilter) ([]folio.Folio, error) {
	return read(m, func(v *view) ([]folio.Folio, error) { return v.ListFolios(ctx, f) })
}

func (m *Memory) InsertReservation(ctx context.Context, r folio.Reservation) error {
	return m.write(func(v *view) error { return v.InsertReservation(ctx, r) })
}

func (m *Memory) UpdateReservation(ctx context.Context, r folio.Reservation) error {
	return m.write(func(v *view) error { return v.UpdateReservation(ctx, r) })
}

func (m *Memory) GetReservation(ctx context.Context, id folio.ReservationID) (folio.Reservation, error) {
	return read(m, func(v *view) (folio.Reservation, error) { return v.GetReservation(ctx, id) })
}

func (m *Memory) ListReservations(ctx context.Context, f folio.ReservationFilter) ([]folio.Reservation, error) {
	return read(m, func(v *view) ([]folio.Reservation, error) { return v.ListReservations(ctx, f) })
}

func (m *Memory) InsertGroupBooking(ctx context.Context, g folio.GroupBooking) error {
	return m.write(func(v *view) error { return v.InsertGroupBooking(ctx, g) })
}

func (m *Memory) UpdateGroupBooking(ctx context.Context, g folio.GroupBooking) error {
	return m.write(func(v *view) error { return v.UpdateGroupBooking(ctx, g) })
}

func (m *Memory) GetGroupBooking(ctx context.Context, id folio.GroupBookingID) (folio.GroupBooking, error) {
	return read(m, func(v *view) (folio.GroupBooking, error) { return v.GetGroupBooking(ctx, id) })
}

func (m *Memory) PutRoom(ctx context.Context, r folio.Room) error {
	return m.write(func(v *view) error { return v.PutRoom(ctx, r) })
}

func (m *Memory) GetRoom(ctx context.Context, id folio.RoomID) (folio.Room, error) {
	return read(m, func(v *view) (folio.Room, error) { return v.GetRoom(ctx, id) })
}

func (m *Memory) PutRoomType(ctx context.Context, rt folio.RoomType) error {
	return m.write(func(v *view) error { return v.PutRoomType(ctx, rt) })
}

func (m *Memory) GetRoomType(ctx context.Context, id string) (folio.RoomType, error) {
	return read(m, func(v *view) (folio.RoomType, error) { return v.GetRoomType(ctx, id) })
}

func (m *Memory) PutRatePlan(ctx context.Context, p folio.RatePlan) error {
	return m.write(func(v *view) error { return v.PutRatePlan(ctx, p) })
}

func (m *Memory) GetRatePlan(ctx context.Context, id string) (folio.RatePlan, error) {
	return read(m, func(v *view) (folio.RatePlan, error) { return v.GetRatePlan(ctx, id) })
}

func (m *Memory) ListRatePlans(ctx context.Context, roomTypeID string) ([]folio.RatePlan, error) {
	return read(m, func(v *view) ([]folio.RatePlan, error) { return v.ListRatePlans(ctx, roomTypeID) })
}

func (m *Memory) PutItem(ctx context.Context, it folio.Item) error {
	return m.write(func(v *view) error { return v.PutItem(ctx, it) })
}

func (m *Memory) GetItem(ctx context.Context, code string) (folio.Item, error) {
	return read(m, func(v *view) (folio.Item, error) { return v.GetItem(ctx, code) })
}

func (m *Memory) PutGuest(ctx context.Context, g folio.Guest) error {
	return m.write(func(v *view) error { return v.PutGuest(ctx, g) })
}

func (m *Memory) GetGuest(ctx context.Context, id folio.GuestID) (folio.Guest, error) {
	return read(m, func(v *view) (folio.Guest, error) { return v.GetGuest(ctx, id) })
}

func (m *Memory) PutCompany(ctx context.Context, c folio.Company) error {
	return m.write(func(v *view) error { return v.PutCompany(ctx, c) })
}

func (m *Memory) GetCompany(ctx context.Context, id folio.CompanyID) (folio.Company, error) {
	return read(m, func(v *view) (folio.Company, error) { return v.GetCompany(ctx, id) })
}

func (m *Memory) PutAllowanceReason(ctx context.Context, r folio.AllowanceReason) error {
	return m.write(func(v *view) error { return v.PutAllowanceReason(ctx, r) })
}

func (m *Memory) GetAllowanceReason(ctx context.Context, code string) (folio.AllowanceReason, error) {
	return read(m, func(v *view) (folio.AllowanceReason, error) { return v.GetAllowanceReason(ctx, code) })
}

// =============================================================================
// VIEW - Lock-free access to state; the caller holds the lock
// =============================================================================

type view struct {
	st *state
}

func (v *view) InsertTransaction(_ context.Context, tx folio.Transaction) error {
	if _, ok := v.st.transactions.get(tx.ID); ok {
		return fmt.Errorf("transaction %s already exists", tx.ID)
	}
	v.st.transactions.put(tx.ID, tx)
	return nil
}

func (v *view) UpdateTransaction(_ context.Context, tx folio.Transaction) error {
	if _, ok := v.st.transactions.get(tx.ID); !ok {
		return folio.NotFound("transaction", string(tx.ID))
	}
	v.st.transactions.put(tx.ID, tx)
	return nil
}

func (v *view) DeleteTransaction(_ context.Context, id folio.TransactionID) error {
	if _, ok := v.st.transactions.get(id); !ok {
		return folio.NotFound("transaction", string(id))
	}
	v.st.transactions.remove(id)
	return nil
}

func (v *view) GetTransaction(_ context.Context, id folio.TransactionID) (folio.Transaction, error) {
	tx, ok := v.st.transactions.get(id)
	if !ok {
		return folio.Transaction{}, folio.NotFound("transaction", string(id))
	}
	return tx, nil
}

func (v *view) ListTransactions(_ context.Context, f folio.TransactionFilter) ([]folio.Transaction, error) {
	return v.st.transactions.list(f.Match), nil
}

func (v *view) SumTransactions(_ context.Context, id folio.FolioID) (folio.Totals, error) {
	return folio.Summarize(v.st.transactions.list(folio.TransactionFilter{FolioID: id}.Match)), nil
}

func (v *view) InsertFolio(_ context.Context, f folio.Folio) error {
	if _, ok := v.st.folios.get(f.ID); ok {
		return fmt.Errorf("folio %s already exists", f.ID)
	}
	v.st.folios.put(f.ID, f)
	return nil
}

func (v *view) UpdateFolio(_ context.Context, f folio.Folio) error {
	if _, ok := v.st.folios.get(f.ID); !ok {
		return folio.NotFound("folio", string(f.ID))
	}
	v.st.folios.put(f.ID, f)
	return nil
}

func (v *view) DeleteFolio(_ context.Context, id folio.FolioID) error {
	if _, ok := v.st.folios.get(id); !ok {
		return folio.NotFound("folio", string(id))
	}
	v.st.folios.remove(id)
	return nil
}

func (v *view) GetFolio(_ context.Context, id folio.FolioID) (folio.Folio, error) {
	f, ok := v.st.folios.get(id)
	if !ok {
		return folio.Folio{}, folio.NotFound("folio", string(id))
	}
	return f, nil
}

func (v *view) ListFolios(_ context.Context, f folio.FolioFilter) ([]folio.Folio, error) {
	return v.st.folios.list(f.Match), nil
}

func (v *view) InsertReservation(_ context.Context, r folio.Reservation) error {
	if _, ok := v.st.reservations.get(r.ID); ok {
		return fmt.Errorf("reservation %s already exists", r.ID)
	}
	v.st.reservations.put(r.ID, r)
	return nil
}

func (v *view) UpdateReservation(_ context.Context, r folio.Reservation) error {
	if _, ok := v.st.reservations.get(r.ID); !ok {
		return folio.NotFound("reservation", string(r.ID))
	}
	v.st.reservations.put(r.ID, r)
	return nil
}

func (v *view) GetReservation(_ context.Context, id folio.ReservationID) (folio.Reservation, error) {
	r, ok := v.st.reservations.get(id)
	if !ok {
		return folio.Reservation{}, folio.NotFound("reservation", string(id))
	}
	return r, nil
}

func (v *view) ListReservations(_ context.Context, f folio.ReservationFilter) ([]folio.Reservation, error) {
	return v.st.reservations.list(f.Match), nil
}

func (v *view) InsertGroupBooking(_ context.Context, g folio.GroupBooking) error {
	if _, ok := v.st.groups.get(g.ID); ok {
		return fmt.Errorf("group booking %s already exists", g.ID)
	}
	v.st.groups.put(g.ID, g)
	return nil
}

func (v *view) UpdateGroupBooking(_ context.Context, g folio.GroupBooking) error {
	if _, ok := v.st.groups.get(g.ID); !ok {
		return folio.NotFound("group booking", string(g.ID))
	}
	v.st.groups.put(g.ID, g)
	return nil
}

func (v *view) GetGroupBooking(_ context.Context, id folio.GroupBookingID) (folio.GroupBooking, error) {
	g, ok := v.st.groups.get(id)
	if !ok {
		return folio.GroupBooking{}, folio.NotFound("group booking", string(id))
	}
	return g, nil
}

func (v *view) PutRoom(_ context.Context, r folio.Room) error {
	v.st.rooms.put(r.ID, r)
	return nil
}

func (v *view) GetRoom(_ context.Context, id folio.RoomID) (folio.Room, error) {
	r, ok := v.st.rooms.get(id)
	if !ok {
		return folio.Room{}, folio.NotFound("room", string(id))
	}
	return r, nil
}

func (v *view) PutRoomType(_ context.Context, rt folio.RoomType) error {
	v.st.roomTypes.put(rt.ID, rt)
	return nil
}

func (v *view) GetRoomType(_ context.Context, id string) (folio.RoomType, error) {
	rt, ok := v.st.roomTypes.get(id)
	if !ok {
		return folio.RoomType{}, folio.NotFound("room type", id)
	}
	return rt, nil
}

func (v *view) PutRatePlan(_ context.Context, p folio.RatePlan) error {
	v.st.ratePlans.put(p.ID, p)
	return nil
}

func (v *view) GetRatePlan(_ context.Context, id string) (folio.RatePlan, error) {
	p, ok := v.st.ratePlans.get(id)
	if !ok {
		return folio.RatePlan{}, folio.NotFound("rate plan", id)
	}
	return p, nil
}

func (v *view) ListRatePlans(_ context.Context, roomTypeID string) ([]folio.RatePlan, error) {
	return v.st.ratePlans.list(func(p folio.RatePlan) bool {
		return roomTypeID == "" || p.RoomTypeID == roomTypeID
	}), nil
}

func (v *view) PutItem(_ context.Context, it folio.Item) error {
	v.st.items.put(it.Code, it)
	return nil
}

func (v *view) GetItem(_ context.Context, code string) (folio.Item, error) {
	it, ok := v.st.items.get(code)
	if !ok {
		return folio.Item{}, folio.NotFound("item", code)
	}
	return it, nil
}

func (v *view) PutGuest(_ context.Context, g folio.Guest) error {
	v.st.guests.put(g.ID, g)
	return nil
}

func (v *view) GetGuest(_ context.Context, id folio.GuestID) (folio.Guest, error) {
	g, ok := v.st.guests.get(id)
	if !ok {
		return folio.Guest{}, folio.NotFound("guest", string(id))
	}
	return g, nil
}

func (v *view) PutCompany(_ context.Context, c folio.Company) error {
	v.st.companies.put(c.ID, c)
	return nil
}

func (v *view) GetCompany(_ context.Context, id folio.CompanyID) (folio.Company, error) {
	c, ok := v.st.companies.get(id)
	if !ok {
		return folio.Company{}, folio.NotFound("company", string(id))
	}
	return c, nil
}

func (v *view) PutAllowanceReason(_ context.Context, r folio.AllowanceReason) error {
	v.st.reasons.put(r.Code, r)
	return nil
}

func (v *view) GetAllowanceReason(_ context.Context, code string) (folio.AllowanceReason, error) {
	r, ok := v.st.reasons.get(code)
	if !ok {
		return folio.AllowanceReason{}, folio.NotFound("allowance reason", code)
	}
	return r, nil
}

var (
	_ folio.TxStore = (*Memory)(nil)
	_ folio.Store   = (*view)(nil)
)
