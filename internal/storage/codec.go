package storage

import (
	"encoding/json"
	"fmt"

	"github.com/mmynk/tabsplit/internal/models"
)

// EncodeBill serializes a bill for storage.
func EncodeBill(bill *models.Bill) ([]byte, error) {
	data, err := json.MarshalIndent(bill, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode bill %s: %w", bill.ID(), err)
	}
	return data, nil
}

// DecodeBill parses a stored bill. Empty or undecodable data yields a bad
// bill carrying the reason rather than an error, so one corrupt bill never
// stops a listing or a load.
func DecodeBill(id string, data []byte) *models.Bill {
	if len(data) == 0 {
		return models.NewBadBill(id, "empty file")
	}

	bill := &models.Bill{}
	if err := json.Unmarshal(data, bill); err != nil {
		return models.NewBadBill(id, fmt.Sprintf("cannot decode bill: %v", err))
	}
	if bill.CreationTime.IsZero() {
		return models.NewBadBill(id, "missing creation time")
	}
	if id != "" && bill.ID() != id {
		return models.NewBadBill(id, fmt.Sprintf("stored bill has id %s", bill.ID()))
	}
	bill.SortCosts()
	bill.Size = int64(len(data))
	return bill
}

// Info summarizes a bill for listings.
func Info(bill *models.Bill) BillInfo {
	info := BillInfo{
		ID:     bill.ID(),
		Frozen: bill.Frozen,
		Size:   bill.Size,
	}
	if bill.IsBad() {
		info.Title = bill.BadReason
		return info
	}
	info.Title = bill.Title()
	info.Total = models.RoundCents(bill.TotalAmount()).StringFixed(2)
	return info
}
