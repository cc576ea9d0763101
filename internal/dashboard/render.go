package dashboard

import (
	"time"

	"github.com/pauljones0/stockwatch/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// HistoryRow is one rendered scan.
type HistoryRow struct {
	Time    string `json:"time"`
	Status  string `json:"status"`
	InStock bool   `json:"inStock"`
}

// Render turns scans into display rows, preserving order, in loc.
func Render(scans []models.Scan, loc *time.Location) []HistoryRow {
	if loc == nil {
		loc = time.Local
	}
	rows := make([]HistoryRow, 0, len(scans))
	for _, s := range scans {
		rows = append(rows, HistoryRow{
			Time:    s.Timestamp.In(loc).Format(timeLayout),
			Status:  s.Status,
			InStock: s.Status == "In stock",
		})
	}
	return rows
}
