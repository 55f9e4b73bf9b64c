/*
Package sqlite provides a SQLite-backed implementation of folio.TxStore.

PURPOSE:
  Persists folios, folio transactions, reservations, group bookings, rooms
  and catalog records. One WithTx call maps to one SQL transaction, which is
  the ACID boundary for every external trigger.

KEY TABLES:
  folio_transactions: signed postings, ordered by seq (insertion order)
  folios:             folio records with derived totals
  reservations:       stays; routing rules and notes kept as JSON
  group_bookings, rooms, room_types, rate_plans, items, guests,
  companies, allowance_reasons: reference data

MONEY:
  Amounts are stored twice: as decimal text (exact round-trip) and as
  integer micro-units (amount_micros) so SUM() stays exact.

AGGREGATE QUERY:
  SumTransactions is a single statement:
    SUM(CASE WHEN amount_micros > 0 THEN amount_micros ELSE 0 END)  -> charges
    SUM(CASE WHEN amount_micros < 0 THEN -amount_micros ELSE 0 END) -> payments
  over non-void rows of one folio.

CONCURRENCY:
  The pool is capped at one connection: SQLite allows a single writer and
  ":memory:" databases exist per connection. WithTx is serialized by a mutex.
  Code running inside WithTx must use the Store it is handed, never the
  outer *Store, or it waits on its own connection.

USAGE:
  st, err := sqlite.New("./data/folio.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()
  engine := folio.NewEngine(st, folio.Config{...})

SEE ALSO:
  - folio/store.go: interface definitions
  - folio/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/folio-engine/folio"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements folio.TxStore using SQLite.
type Store struct {
	queries
	db *sql.DB
	mu sync.Mutex
}

// queries implements folio.Store over any querier.
type queries struct {
	q querier
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{queries: queries{q: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS folios (
		id TEXT PRIMARY KEY,
		guest_id TEXT NOT NULL DEFAULT '',
		reservation_id TEXT NOT NULL DEFAULT '',
		company_id TEXT NOT NULL DEFAULT '',
		room_id TEXT NOT NULL DEFAULT '',
		group_booking_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		is_company_master INTEGER NOT NULL DEFAULT 0,
		total_charges TEXT NOT NULL DEFAULT '0',
		total_payments TEXT NOT NULL DEFAULT '0',
		outstanding_balance TEXT NOT NULL DEFAULT '0',
		open_date TEXT NOT NULL DEFAULT '',
		close_date TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_folios_company_master
		ON folios(company_id, is_company_master, status);
	CREATE INDEX IF NOT EXISTS idx_folios_reservation
		ON folios(reservation_id);

	-- Folio transactions (append-biased; only void/invoice/reference fields change)
	CREATE TABLE IF NOT EXISTS folio_transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		folio_id TEXT NOT NULL REFERENCES folios(id),
		posting_date TEXT NOT NULL,
		item_code TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		qty TEXT NOT NULL,
		amount TEXT NOT NULL,
		amount_micros INTEGER NOT NULL,
		bill_to TEXT NOT NULL,
		is_void INTEGER NOT NULL DEFAULT 0,
		void_reason TEXT NOT NULL DEFAULT '',
		is_invoiced INTEGER NOT NULL DEFAULT 0,
		reference_type TEXT NOT NULL DEFAULT '',
		reference_name TEXT NOT NULL DEFAULT '',
		is_mirror INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Balance aggregation (hot path)
	CREATE INDEX IF NOT EXISTS idx_folio_transactions_folio
		ON folio_transactions(folio_id, is_void);
	-- Mirror dedup and stock/invoice back-links
	CREATE INDEX IF NOT EXISTS idx_folio_transactions_reference
		ON folio_transactions(reference_type, reference_name);
	-- Night-audit idempotence check
	CREATE INDEX IF NOT EXISTS idx_folio_transactions_posting
		ON folio_transactions(folio_id, posting_date);

	CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		guest_id TEXT NOT NULL DEFAULT '',
		room_id TEXT NOT NULL DEFAULT '',
		room_type_id TEXT NOT NULL DEFAULT '',
		rate_plan_id TEXT NOT NULL DEFAULT '',
		arrival_date TEXT NOT NULL,
		departure_date TEXT NOT NULL,
		status TEXT NOT NULL,
		company_id TEXT NOT NULL DEFAULT '',
		is_company_guest INTEGER NOT NULL DEFAULT 0,
		is_group_guest INTEGER NOT NULL DEFAULT 0,
		group_booking_id TEXT NOT NULL DEFAULT '',
		is_complimentary INTEGER NOT NULL DEFAULT 0,
		discount_type TEXT NOT NULL DEFAULT '',
		discount_value TEXT NOT NULL DEFAULT '0',
		routing_json TEXT NOT NULL DEFAULT '[]',
		notes_json TEXT NOT NULL DEFAULT '[]',
		folio_id TEXT NOT NULL DEFAULT ''
	);

	-- Availability scans
	CREATE INDEX IF NOT EXISTS idx_reservations_room_status
		ON reservations(room_id, status);
	CREATE INDEX IF NOT EXISTS idx_reservations_group
		ON reservations(group_booking_id);

	CREATE TABLE IF NOT EXISTS group_bookings (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		arrival_date TEXT NOT NULL,
		departure_date TEXT NOT NULL,
		master_payer TEXT NOT NULL DEFAULT '',
		master_folio_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		room_type_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		is_enabled INTEGER NOT NULL DEFAULT 1,
		warehouse TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS room_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		default_rate TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS rate_plans (
		id TEXT PRIMARY KEY,
		room_type_id TEXT NOT NULL,
		rate TEXT NOT NULL,
		valid_from TEXT NOT NULL,
		valid_to TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS items (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		item_group TEXT NOT NULL DEFAULT '',
		standard_rate TEXT NOT NULL DEFAULT '0',
		price_list_rate TEXT NOT NULL DEFAULT '0',
		is_stock_item INTEGER NOT NULL DEFAULT 0,
		stock_uom TEXT NOT NULL DEFAULT '',
		default_warehouse TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS guests (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL DEFAULT '',
		customer_id TEXT NOT NULL DEFAULT '',
		guest_type TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		credit_limit TEXT NOT NULL DEFAULT '0',
		hotel_limits_json TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS allowance_reasons (
		code TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		requires_manager_approval INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (folio.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store folio.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{q: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// =============================================================================
// FOLIO TRANSACTIONS
// =============================================================================

const transactionColumns = `id, folio_id, posting_date, item_code, description, qty, amount,
	bill_to, is_void, void_reason, is_invoiced, reference_type, reference_name, is_mirror, created_at`

func (q *queries) InsertTransaction(ctx context.Context, tx folio.Transaction) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO folio_transactions (`+transactionColumns+`, amount_micros)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.FolioID, tx.PostingDate.String(), tx.ItemCode, tx.Description,
		tx.Qty.String(), tx.Amount.String(), tx.BillTo,
		tx.IsVoid, tx.VoidReason, tx.IsInvoiced, tx.ReferenceType, tx.ReferenceName, tx.IsMirror,
		tx.CreatedAt.UTC().Format(time.RFC3339Nano), toMicros(tx.Amount),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (q *queries) UpdateTransaction(ctx context.Context, tx folio.Transaction) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE folio_transactions SET
			folio_id = ?, posting_date = ?, item_code = ?, description = ?, qty = ?,
			amount = ?, amount_micros = ?, bill_to = ?, is_void = ?, void_reason = ?,
			is_invoiced = ?, reference_type = ?, reference_name = ?, is_mirror = ?
		WHERE id = ?`,
		tx.FolioID, tx.PostingDate.String(), tx.ItemCode, tx.Description, tx.Qty.String(),
		tx.Amount.String(), toMicros(tx.Amount), tx.BillTo, tx.IsVoid, tx.VoidReason,
		tx.IsInvoiced, tx.ReferenceType, tx.ReferenceName, tx.IsMirror,
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", tx.ID, err)
	}
	return requireRow(res, "transaction", string(tx.ID))
}

func (q *queries) DeleteTransaction(ctx context.Context, id folio.TransactionID) error {
	res, err := q.q.ExecContext(ctx, `DELETE FROM folio_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	return requireRow(res, "transaction", string(id))
}

func (q *queries) GetTransaction(ctx context.Context, id folio.TransactionID) (folio.Transaction, error) {
	txs, err := q.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM folio_transactions WHERE id = ?`, id)
	if err != nil {
		return folio.Transaction{}, err
	}
	if len(txs) == 0 {
		return folio.Transaction{}, folio.NotFound("transaction", string(id))
	}
	return txs[0], nil
}

func (q *queries) ListTransactions(ctx context.Context, f folio.TransactionFilter) ([]folio.Transaction, error) {
	var w where
	w.eq("folio_id", string(f.FolioID))
	in(&w, "item_code", f.ItemCodes)
	if !f.PostingDate.IsZero() {
		w.eq("posting_date", f.PostingDate.String())
	}
	w.eq("bill_to", string(f.BillTo))
	w.eq("reference_type", f.ReferenceType)
	w.eq("reference_name", f.ReferenceName)
	if f.ExcludeVoid {
		w.raw("is_void = 0")
	}
	if f.OnlyUnbilled {
		w.raw("is_invoiced = 0")
	}
	return q.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM folio_transactions`+w.sql()+` ORDER BY seq ASC`, w.args...)
}

// SumTransactions is the aggregate behind the Balance Aggregator.
func (q *queries) SumTransactions(ctx context.Context, folioID folio.FolioID) (folio.Totals, error) {
	var charges, payments int64
	err := q.q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN amount_micros > 0 THEN amount_micros ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN amount_micros < 0 THEN -amount_micros ELSE 0 END), 0)
		FROM folio_transactions
		WHERE folio_id = ? AND is_void = 0`, folioID,
	).Scan(&charges, &payments)
	if err != nil {
		return folio.Totals{}, fmt.Errorf("failed to sum transactions: %w", err)
	}
	c, p := fromMicros(charges), fromMicros(payments)
	return folio.Totals{Charges: c, Payments: p, Outstanding: c.Sub(p)}, nil
}

func (q *queries) queryTransactions(ctx context.Context, query string, args ...any) ([]folio.Transaction, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []folio.Transaction
	for rows.Next() {
		var (
			tx                     folio.Transaction
			postingDate, createdAt string
			qty, amount, billTo    string
		)
		err := rows.Scan(&tx.ID, &tx.FolioID, &postingDate, &tx.ItemCode, &tx.Description, &qty, &amount,
			&billTo, &tx.IsVoid, &tx.VoidReason, &tx.IsInvoiced, &tx.ReferenceType, &tx.ReferenceName,
			&tx.IsMirror, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.PostingDate = parseDate(postingDate)
		tx.Qty = parseDecimal(qty)
		tx.Amount = parseDecimal(amount)
		tx.BillTo = folio.BillTo(billTo)
		tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, tx)
	}
	return out, rows.Err()
}

// =============================================================================
// FOLIOS
// =============================================================================

const folioColumns = `id, guest_id, reservation_id, company_id, room_id, group_booking_id, status,
	is_company_master, total_charges, total_payments, outstanding_balance, open_date, close_date`

func (q *queries) InsertFolio(ctx context.Context, f folio.Folio) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO folios (`+folioColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.GuestID, f.ReservationID, f.CompanyID, f.RoomID, f.GroupBookingID, f.Status,
		f.IsCompanyMaster, f.TotalCharges.String(), f.TotalPayments.String(), f.OutstandingBalance.String(),
		f.OpenDate.String(), f.CloseDate.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert folio %s: %w", f.ID, err)
	}
	return nil
}

func (q *queries) UpdateFolio(ctx context.Context, f folio.Folio) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE folios SET
			guest_id = ?, reservation_id = ?, company_id = ?, room_id = ?, group_booking_id = ?,
			status = ?, is_company_master = ?, total_charges = ?, total_payments = ?,
			outstanding_balance = ?, open_date = ?, close_date = ?
		WHERE id = ?`,
		f.GuestID, f.ReservationID, f.CompanyID, f.RoomID, f.GroupBookingID,
		f.Status, f.IsCompanyMaster, f.TotalCharges.String(), f.TotalPayments.String(),
		f.OutstandingBalance.String(), f.OpenDate.String(), f.CloseDate.String(),
		f.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update folio %s: %w", f.ID, err)
	}
	return requireRow(res, "folio", string(f.ID))
}

func (q *queries) DeleteFolio(ctx context.Context, id folio.FolioID) error {
	res, err := q.q.ExecContext(ctx, `DELETE FROM folios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete folio %s: %w", id, err)
	}
	return requireRow(res, "folio", string(id))
}

func (q *queries) GetFolio(ctx context.Context, id folio.FolioID) (folio.Folio, error) {
	fs, err := q.queryFolios(ctx, `SELECT `+folioColumns+` FROM folios WHERE id = ?`, id)
	if err != nil {
		return folio.Folio{}, err
	}
	if len(fs) == 0 {
		return folio.Folio{}, folio.NotFound("folio", string(id))
	}
	return fs[0], nil
}

func (q *queries) ListFolios(ctx context.Context, f folio.FolioFilter) ([]folio.Folio, error) {
	var w where
	in(&w, "status", f.Statuses)
	w.eq("company_id", string(f.CompanyID))
	w.eq("guest_id", string(f.GuestID))
	w.eq("reservation_id", string(f.ReservationID))
	w.eq("room_id", string(f.RoomID))
	w.eq("group_booking_id", string(f.GroupBookingID))
	if f.CompanyMaster != nil {
		w.raw("is_company_master = ?", *f.CompanyMaster)
	}
	return q.queryFolios(ctx, `SELECT `+folioColumns+` FROM folios`+w.sql()+` ORDER BY rowid ASC`, w.args...)
}

func (q *queries) queryFolios(ctx context.Context, query string, args ...any) ([]folio.Folio, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query folios: %w", err)
	}
	defer rows.Close()

	var out []folio.Folio
	for rows.Next() {
		var (
			f                          folio.Folio
			status                     string
			charges, payments, balance string
			openDate, closeDate        string
		)
		err := rows.Scan(&f.ID, &f.GuestID, &f.ReservationID, &f.CompanyID, &f.RoomID, &f.GroupBookingID,
			&status, &f.IsCompanyMaster, &charges, &payments, &balance, &openDate, &closeDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folio: %w", err)
		}
		f.Status = folio.FolioStatus(status)
		f.TotalCharges = parseDecimal(charges)
		f.TotalPayments = parseDecimal(payments)
		f.OutstandingBalance = parseDecimal(balance)
		f.OpenDate = parseDate(openDate)
		f.CloseDate = parseDate(closeDate)
		out = append(out, f)
	}
	return out, rows.Err()
}

// =============================================================================
// RESERVATIONS
// =============================================================================

const reservationColumns = `id, guest_id, room_id, room_type_id, rate_plan_id, arrival_date, departure_date,
	status, company_id, is_company_guest, is_group_guest, group_booking_id, is_complimentary,
	discount_type, discount_value, routing_json, notes_json, folio_id`

func (q *queries) InsertReservation(ctx context.Context, r folio.Reservation) error {
	args, err := reservationArgs(r)
	if err != nil {
		return err
	}
	_, err = q.q.ExecContext(ctx, `
		INSERT INTO reservations (`+reservationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("failed to insert reservation %s: %w", r.ID, err)
	}
	return nil
}

func (q *queries) UpdateReservation(ctx context.Context, r folio.Reservation) error {
	args, err := reservationArgs(r)
	if err != nil {
		return err
	}
	res, err := q.q.ExecContext(ctx, `
		UPDATE reservations SET
			guest_id = ?, room_id = ?, room_type_id = ?, rate_plan_id = ?, arrival_date = ?,
			departure_date = ?, status = ?, company_id = ?, is_company_guest = ?, is_group_guest = ?,
			group_booking_id = ?, is_complimentary = ?, discount_type = ?, discount_value = ?,
			routing_json = ?, notes_json = ?, folio_id = ?
		WHERE id = ?`, append(args[1:], r.ID)...)
	if err != nil {
		return fmt.Errorf("failed to update reservation %s: %w", r.ID, err)
	}
	return requireRow(res, "reservation", string(r.ID))
}

func reservationArgs(r folio.Reservation) ([]any, error) {
	routing, err := json.Marshal(nonNil(r.Routing))
	if err != nil {
		return nil, fmt.Errorf("failed to encode routing: %w", err)
	}
	notes, err := json.Marshal(nonNil(r.Notes))
	if err != nil {
		return nil, fmt.Errorf("failed to encode notes: %w", err)
	}
	return []any{
		r.ID, r.GuestID, r.RoomID, r.RoomTypeID, r.RatePlanID, r.Arrival.String(), r.Departure.String(),
		r.Status, r.CompanyID, r.IsCompanyGuest, r.IsGroupGuest, r.GroupBookingID, r.IsComplimentary,
		r.DiscountType, r.DiscountValue.String(), string(routing), string(notes), r.FolioID,
	}, nil
}

func (q *queries) GetReservation(ctx context.Context, id folio.ReservationID) (folio.Reservation, error) {
	rs, err := q.queryReservations(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	if err != nil {
		return folio.Reservation{}, err
	}
	if len(rs) == 0 {
		return folio.Reservation{}, folio.NotFound("reservation", string(id))
	}
	return rs[0], nil
}

func (q *queries) ListReservations(ctx context.Context, f folio.ReservationFilter) ([]folio.Reservation, error) {
	var w where
	in(&w, "status", f.Statuses)
	w.eq("room_id", string(f.RoomID))
	w.eq("guest_id", string(f.GuestID))
	w.eq("group_booking_id", string(f.GroupBookingID))
	return q.queryReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations`+w.sql()+` ORDER BY rowid ASC`, w.args...)
}

func (q *queries) queryReservations(ctx context.Context, query string, args ...any) ([]folio.Reservation, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var out []folio.Reservation
	for rows.Next() {
		var (
			r                           folio.Reservation
			arrival, departure, status  string
			discountType, discountValue string
			routing, notes              string
		)
		err := rows.Scan(&r.ID, &r.GuestID, &r.RoomID, &r.RoomTypeID, &r.RatePlanID, &arrival, &departure,
			&status, &r.CompanyID, &r.IsCompanyGuest, &r.IsGroupGuest, &r.GroupBookingID, &r.IsComplimentary,
			&discountType, &discountValue, &routing, &notes, &r.FolioID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		r.Arrival = parseDate(arrival)
		r.Departure = parseDate(departure)
		r.Status = folio.ReservationStatus(status)
		r.DiscountType = folio.DiscountType(discountType)
		r.DiscountValue = parseDecimal(discountValue)
		if err := json.Unmarshal([]byte(routing), &r.Routing); err != nil {
			return nil, fmt.Errorf("failed to decode routing of %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(notes), &r.Notes); err != nil {
			return nil, fmt.Errorf("failed to decode notes of %s: %w", r.ID, err)
		}
		if len(r.Routing) == 0 {
			r.Routing = nil
		}
		if len(r.Notes) == 0 {
			r.Notes = nil
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// GROUP BOOKINGS AND ROOMS
// =============================================================================

func (q *queries) InsertGroupBooking(ctx context.Context, g folio.GroupBooking) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO group_bookings (id, name, arrival_date, departure_date, master_payer, master_folio_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Arrival.String(), g.Departure.String(), g.MasterPayer, g.MasterFolioID, g.Status)
	if err != nil {
		return fmt.Errorf("failed to insert group booking %s: %w", g.ID, err)
	}
	return nil
}

func (q *queries) UpdateGroupBooking(ctx context.Context, g folio.GroupBooking) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE group_bookings SET name = ?, arrival_date = ?, departure_date = ?, master_payer = ?,
			master_folio_id = ?, status = ?
		WHERE id = ?`,
		g.Name, g.Arrival.String(), g.Departure.String(), g.MasterPayer, g.MasterFolioID, g.Status, g.ID)
	if err != nil {
		return fmt.Errorf("failed to update group booking %s: %w", g.ID, err)
	}
	return requireRow(res, "group booking", string(g.ID))
}

func (q *queries) GetGroupBooking(ctx context.Context, id folio.GroupBookingID) (folio.GroupBooking, error) {
	var (
		g                          folio.GroupBooking
		arrival, departure, status string
	)
	err := q.q.QueryRowContext(ctx, `
		SELECT id, name, arrival_date, departure_date, master_payer, master_folio_id, status
		FROM group_bookings WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &arrival, &departure, &g.MasterPayer, &g.MasterFolioID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return folio.GroupBooking{}, folio.NotFound("group booking", string(id))
	}
	if err != nil {
		return folio.GroupBooking{}, fmt.Errorf("failed to get group booking: %w", err)
	}
	g.Arrival = parseDate(arrival)
	g.Departure = parseDate(departure)
	g.Status = folio.GroupStatus(status)
	return g, nil
}

func (q *queries) PutRoom(ctx context.Context, r folio.Room) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO rooms (id, room_type_id, status, is_enabled, warehouse)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			room_type_id = excluded.room_type_id, status = excluded.status,
			is_enabled = excluded.is_enabled, warehouse = excluded.warehouse`,
		r.ID, r.RoomTypeID, r.Status, r.IsEnabled, r.Warehouse)
	if err != nil {
		return fmt.Errorf("failed to save room %s: %w", r.ID, err)
	}
	return nil
}

func (q *queries) GetRoom(ctx context.Context, id folio.RoomID) (folio.Room, error) {
	var (
		r      folio.Room
		status string
	)
	err := q.q.QueryRowContext(ctx, `
		SELECT id, room_type_id, status, is_enabled, warehouse FROM rooms WHERE id = ?`, id,
	).Scan(&r.ID, &r.RoomTypeID, &status, &r.IsEnabled, &r.Warehouse)
	if errors.Is(err, sql.ErrNoRows) {
		return folio.Room{}, folio.NotFound("room", string(id))
	}
	if err != nil {
		return folio.Room{}, fmt.Errorf("failed to get room: %w", err)
	}
	r.Status = folio.RoomStatus(status)
	return r, nil
}

// =============================================================================
// CATALOG
// =============================================================================

func (q *queries) PutRoomType(ctx context.Context, rt folio.RoomType) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO room_types (id, name, default_rate) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, default_rate = excluded.default_rate`,
		rt.ID, rt.Name, rt.DefaultRate.String())
	if err != nil {
		return fmt.Errorf("failed to save room type %s: %w", rt.ID, err)
	}
	return nil
}

func (q *queries) GetRoomType(ctx context.Context, id string) (folio.RoomType, error) {
	var (
		rt   folio.RoomType
		rate string
	)
	err := q.q.QueryRowContext(ctx, `SELECT id, name, default_rate FROM room_types WHERE id = ?`, id).
		Scan(&rt.ID, &rt.Name, &rate)
	if errors.Is(err, sql.ErrNoRows) {
		return folio.RoomType{}, folio.NotFound("room type", id)
	}
	if err != nil {
		return folio.RoomType{}, fmt.Errorf("failed to get room type: %w", err)
	}
	rt.DefaultRate = parseDecimal(rate)
	return rt, nil
}

func (q *queries) PutRatePlan(ctx context.Context, p folio.RatePlan) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO rate_plans (id, room_type_id, rate, valid_from, valid_to, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			room_type_id = excluded.room_type_id, rate = excluded.rate, valid_from = excluded.valid_from,
			valid_to = excluded.valid_to, is_active = excluded.is_active`,
		p.ID, p.RoomTypeID, p.Rate.String(), p.ValidFrom.String(), p.ValidTo.String(), p.Active)
	if err != nil {
		return fmt.Errorf("failed to save rate plan %s: %w", p.ID, err)
	}
	return nil
}

func (q *queries) GetRatePlan(ctx context.Context, id string) (folio.RatePlan, error) {
	plans, err := q.queryRatePlans(ctx, `WHERE id = ?`, id)
	if err != nil {
		return folio.RatePlan{}, err
	}
	if len(plans) == 0 {
		return folio.RatePlan{}, folio.NotFound("rate plan", id)
	}
	return plans[0], nil
}

func (q *queries) ListRatePlans(ctx context.Context, roomTypeID string) ([]folio.RatePlan, error) {
	if roomTypeID == "" {
		return q.queryRatePlans(ctx, `ORDER BY rowid ASC`)
	}
	return q.queryRatePlans(ctx, `WHERE room_type_id = ? ORDER BY rowid ASC`, roomTypeID)
}

func (q *queries) queryRatePlans(ctx context.Context, clause string, args ...any) ([]folio.RatePlan, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT id, room_type_id, rate, valid_from, valid_to, is_active FROM rate_plans `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate plans: %w", err)
	}
	defer rows.Close()

	var out []folio.RatePlan
	for rows.Next() {
		var (
			p              folio.RatePlan
			rate, from, to string
		)
		if err := rows.Scan(&p.ID, &p.RoomTypeID, &rate, &from, &to, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan rate plan: %w", err)
		}
		p.Rate = parseDecimal(rate)
		p.ValidFrom = parseDate(from)
		p.ValidTo = parseDate(to)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *queries) PutItem(ctx context.Context, it folio.Item) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO items (code, name, item_group, standard_rate, price_list_rate, is_stock_item, stock_uom, default_warehouse)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name, item_group = excluded.item_group, standard_rate = excluded.standard_rate,
			price_list_rate = excluded.price_list_rate, is_stock_item = excluded.is_stock_item,
			stock_uom = excluded.stock_uom, default_warehouse = excluded.default_warehouse`,
		it.Code, it.Name, it.ItemGroup, it.StandardRate.String(), it.PriceListRate.String(),
		it.IsStockItem, it.StockUOM, it.DefaultWarehouse)
	if err != nil {
		return fmt.Errorf("failed to save item %s: %w", it.Code, err)
	}
	return nil
}

func (q *queries) GetItem(ctx context.Context, code string) (folio.Item, error) {
	var (
		it                 folio.Item
		standard, priceLst string
	)
	err := q.q.QueryRowContext(ctx, `
		SELECT code, name, item_group, standard_rate, price_list_rate, is_stock_item, stock_uom, default_warehouse
		FROM items WHERE code = ?`, code,
	).Scan(&it.Code, &it.Name, &it.ItemGroup, &standard, &priceLst, &it.IsStockItem, &it.StockUOM, &it.DefaultWarehouse)
	if errors.Is(err, sql.ErrNoRows) {
		return folio.Item{}, folio.NotFound("item", code)
	}
	if err != nil {
		return folio.Item{}, fmt.Errorf("failed to get item: %w", err)
	}
	it.StandardRate = parseDecimal(standard)
	it.PriceListRate = parseDecimal(priceLst)
	return it, nil
}

func (q *queries) PutGuest(ctx context.Context, g folio.Guest) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO guests (id, full_name, customer_id, guest_type) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name, customer_id = excluded.customer_id, guest_type = excluded.guest_type`,
		g.ID, g.FullName, g.CustomerID, g.GuestType)
	if err != nil {
		return fmt.Errorf("failed to save guest %s: %w", g.ID, err)
	}
	return nil
}

func (q *queries) GetGuest(ctx context.Context, id folio.GuestID) (folio.Guest, error) {
	var g folio.Guest
	err := q.q.QueryRowContext(ctx, `SELECT id, full_name, customer_id, guest_type FROM guests WHERE id = ?`, id).
		Scan(&g.ID, &g.FullName, &g.CustomerID, &g.GuestType)
	if errors.Is(err, sql.ErrNoRows) {
		return folio.Guest{}, folio.NotFound("guest", string(id))
	}
	if err != nil {
		return folio.Guest{}, fmt.Errorf("failed to get guest: %w", err)
	}
	return g, nil
}

func (q *queries) PutCompany(ctx context.Context, c folio.Company) error {
	limits := make(map[string]string, len(c.HotelCreditLimits))
	for hotel, v := range c.HotelCreditLimits {
		limits[hotel] = v.String()
	}
	encoded, err := json.Marshal(limits)
	if err != nil {
		return fmt.Errorf("failed to encode credit limits: %w", err)
	}
	_, err = q.q.ExecContext(ctx, `
		INSERT INTO companies (id, name, credit_limit, hotel_limits_json) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, credit_limit = excluded.credit_limit, hotel_limits_json = excluded.hotel_limits_json`,
		c.ID, c.Name, c.CreditLimit.String(), string(encoded))
	if err != nil {
		return fmt.Errorf("failed to save company %s: %w", c.ID, err)
	}
	return nil
}

func (q *queries) GetCompany(ctx context.Context, id folio.CompanyID) (folio.Company, error) {
	var (
		c             folio.Company
		limit, hotels string
	)
	err := q.q.QueryRowContext(ctx, `SELECT id, name, credit_limit, hotel_limits_json FROM companies WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &limit, &hotels)
	if errors.Is(err, sql.ErrNoRows) {
		return folio.Company{}, folio.NotFound("company", string(id))
	}
	if err != nil {
		return folio.Company{}, fmt.Errorf("failed to get company: %w", err)
	}
	c.CreditLimit = parseDecimal(limit)

	var raw map[string]string
	if err := json.Unmarshal([]byte(hotels), &raw); err != nil {
		return folio.Company{}, fmt.Errorf("failed to decode credit limits of %s: %w", id, err)
	}
	if len(raw) > 0 {
		c.HotelCreditLimits = make(map[string]decimal.Decimal, len(raw))
		for hotel, v := range raw {
			c.HotelCreditLimits[hotel] = parseDecimal(v)
		}
	}
	return c, nil
}

func (q *queries) PutAllowanceReason(ctx context.Context, r folio.AllowanceReason) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO allowance_reasons (code, description, requires_manager_approval) VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			description = excluded.description, requires_manager_approval = excluded.requires_manager_approval`,
		r.Code, r.Description, r.RequiresManagerApproval)
	if err != nil {
		return fmt.Errorf("failed to save reason %s: %w", r.Code, err)
	}
	return nil
}

func (q *queries) GetAllowanceReason(ctx context.Context, code string) (folio.AllowanceReason, error) {
	var r folio.AllowanceReason
	err := q.q.QueryRowContext(ctx,
		`SELECT code, description, requires_manager_approval FROM allowance_reasons WHERE code = ?`, code,
	).Scan(&r.Code, &r.Description, &r.RequiresManagerApproval)
	if errors.Is(err, sql.ErrNoRows) {
		return folio.AllowanceReason{}, folio.NotFound("allowance reason", code)
	}
	if err != nil {
		return folio.AllowanceReason{}, fmt.Errorf("failed to get reason: %w", err)
	}
	return r, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// where accumulates AND-ed predicates; empty values are skipped.
type where struct {
	clauses []string
	args    []any
}

func (w *where) eq(column, value string) {
	if value == "" {
		return
	}
	w.clauses = append(w.clauses, column+" = ?")
	w.args = append(w.args, value)
}

func (w *where) raw(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func in[T ~string](w *where, column string, values []T) {
	if len(values) == 0 {
		return
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	w.clauses = append(w.clauses, column+" IN ("+marks+")")
	for _, v := range values {
		w.args = append(w.args, string(v))
	}
}

func (w *where) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return folio.NotFound(kind, id)
	}
	return nil
}

const microsExp = 6

func toMicros(d decimal.Decimal) int64 {
	return d.Shift(microsExp).Round(0).IntPart()
}

func fromMicros(v int64) decimal.Decimal {
	return decimal.New(v, -microsExp)
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseDate(s string) folio.Date {
	if s == "" {
		return folio.Date{}
	}
	d, err := folio.ParseDate(s)
	if err != nil {
		return folio.Date{}
	}
	return d
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var _ folio.TxStore = (*Store)(nil)
