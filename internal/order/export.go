package order

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "Üretim"

// WriteSummaryXLSX: Günlük üretim özetini tek sayfalık Excel dosyası olarak yazar
func WriteSummaryXLSX(sum *Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("sheet adı verilemedi: %w", err)
	}

	header := []any{"Ürün Kodu", "Ürün Adı", "Sipariş Sayısı", "İstenen Tepsi", "Onaylanan Tepsi", "Onaylanan Tutar"}
	if err := f.SetSheetRow(summarySheet, "A1", &[]any{"Teslim Tarihi", sum.Date}); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(summarySheet, "A3", &header); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(summarySheet, "A1", "A1", bold)
	_ = f.SetCellStyle(summarySheet, "A3", "F3", bold)

	rowNo := 4
	for _, r := range sum.Rows {
		amount, _ := r.ApprovedAmount.Float64()
		cell, _ := excelize.CoordinatesToCellName(1, rowNo)
		if err := f.SetSheetRow(summarySheet, cell, &[]any{
			r.ProductCode, r.ProductName, r.OrderCount, r.RequestedTray, r.ApprovedTray, amount,
		}); err != nil {
			return nil, err
		}
		rowNo++
	}

	total, _ := sum.ApprovedAmount.Float64()
	cell, _ := excelize.CoordinatesToCellName(1, rowNo)
	if err := f.SetSheetRow(summarySheet, cell, &[]any{"TOPLAM", "", "", sum.RequestedTray, sum.ApprovedTray, total}); err != nil {
		return nil, err
	}
	endCell, _ := excelize.CoordinatesToCellName(6, rowNo)
	_ = f.SetCellStyle(summarySheet, cell, endCell, bold)
	_ = f.SetColWidth(summarySheet, "A", "A", 16)
	_ = f.SetColWidth(summarySheet, "B", "B", 28)
	_ = f.SetColWidth(summarySheet, "C", "F", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("excel yazılamadı: %w", err)
	}
	return buf.Bytes(), nil
}
