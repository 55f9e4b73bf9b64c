package folio

import (
	"context"
	"log/slog"
)

// StockDeduction issues a warehouse deduction for newly posted stock items
// and links the stock movement back on the transaction. It is best-effort:
// every failure is logged and the posting proceeds.
type StockDeduction struct {
	Service StockService
	Log     *slog.Logger
}

// Handle runs on TransactionSaved inserts.
func (sd *StockDeduction) Handle(ctx context.Context, s Store, ev Event) error {
	if !ev.IsInsert() || sd.Service == nil {
		return nil
	}
	t := ev.Transaction
	if t.IsVoid || t.IsMirror || t.IsInvoiced || !t.Amount.IsPositive() || t.ReferenceType != "" {
		return nil
	}
	log := sd.logger().With(slog.String("transaction", string(t.ID)), slog.String("item", t.ItemCode))

	item, err := s.GetItem(ctx, t.ItemCode)
	if err != nil {
		if !IsNotFound(err) {
			log.Warn("stock item lookup failed", slog.String("error", err.Error()))
		}
		return nil
	}
	if !item.IsStockItem {
		return nil
	}

	warehouse := item.DefaultWarehouse
	if f, err := s.GetFolio(ctx, t.FolioID); err == nil && f.RoomID != "" {
		if room, err := s.GetRoom(ctx, f.RoomID); err == nil && room.Warehouse != "" {
			warehouse = room.Warehouse
		}
	}
	if warehouse == "" {
		log.Warn("no warehouse for stock deduction, skipped")
		return nil
	}

	movement, err := sd.Service.Issue(ctx, StockIssue{
		ItemCode:    t.ItemCode,
		Qty:         t.Qty,
		UOM:         item.StockUOM,
		Warehouse:   warehouse,
		Company:     ev.HC.Company,
		PostingDate: t.PostingDate,
		Reference:   t.ID,
	})
	if err != nil {
		log.Warn("stock deduction failed", slog.String("error", err.Error()))
		return nil
	}

	t.ReferenceType = RefStockEntry
	t.ReferenceName = movement
	if err := s.UpdateTransaction(ctx, t); err != nil {
		log.Warn("stock movement not linked", slog.String("movement", movement), slog.String("error", err.Error()))
		return nil
	}
	log.Info("stock issued", slog.String("warehouse", warehouse), slog.String("movement", movement))
	return nil
}

func (sd *StockDeduction) logger() *slog.Logger {
	if sd.Log == nil {
		return slog.Default()
	}
	return sd.Log
}
