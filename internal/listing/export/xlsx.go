// Package export renders moderation spreadsheets of rooms.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"rentmeroom/internal/listing/models"
)

const sheetName = "Rooms"

var roomHeader = []string{
	"Room ID",
	"Title",
	"Rent",
	"Address",
	"Latitude",
	"Longitude",
	"Contact",
	"Features",
	"Verified",
	"Images",
	"Owner ID",
	"Owner Name",
	"Owner Email",
	"Created At",
}

var columnWidths = []float64{38, 30, 10, 45, 12, 12, 18, 30, 10, 8, 38, 24, 30, 22}

// WriteRooms writes one row per room to w as an .xlsx workbook.
func WriteRooms(w io.Writer, rooms []models.OwnerRoom) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &roomHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(roomHeader), 1)
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	for i, r := range rooms {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
		row := roomRow(r)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func roomRow(r models.OwnerRoom) []any {
	address := r.AddressText
	if r.Address != nil {
		if composed := r.Address.String(); composed != "" {
			address = composed
		}
	}
	var lat, lon any = "", ""
	if r.Location != nil {
		lat, lon = r.Location.Lat, r.Location.Lon
	}
	var ownerName, ownerEmail string
	if r.Owner != nil {
		ownerName, ownerEmail = r.Owner.Name, r.Owner.Email
	}
	return []any{
		r.ID.String(),
		r.Title,
		r.Rent,
		address,
		lat,
		lon,
		r.Contact,
		strings.Join(r.Features, ", "),
		strconv.FormatBool(r.IsVerified),
		len(r.Images),
		r.OwnerID.String(),
		ownerName,
		ownerEmail,
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
