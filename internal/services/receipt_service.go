package services

import (
	"bytes"
	"fmt"
	"time"

	"medassist/internal/common"
	"medassist/internal/config"
	"medassist/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// renderReceipt draws a one-page payment receipt for a paid subscription.
func renderReceipt(sub *models.Subscription, plan config.PlanConfig, loc *time.Location) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	marginX := 20.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(marginX, marginY)
	pdf.Cell(0, 10, "MEDASSIST PAYMENT RECEIPT")
	pdf.Ln(15)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Receipt Number: %s", common.SafeString(sub.Mpesa.ReceiptNumber)))
	pdf.Ln(8)
	paidAt := sub.CreatedAt
	if sub.Mpesa.TransactionDate != nil {
		paidAt = *sub.Mpesa.TransactionDate
	}
	pdf.Cell(0, 8, fmt.Sprintf("Payment Date: %s", paidAt.In(loc).Format("02-Jan-2006 15:04")))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Subscription ID: %s", sub.ID.String()))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Paid via M-Pesa from %s", sub.Mpesa.PhoneNumber))
	pdf.Ln(10)

	headers := []string{"Plan", "Period", "Amount"}
	colWidths := []float64{60, 70, 40}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	period := fmt.Sprintf("%s - %s", sub.StartDate.In(loc).Format("02-Jan-2006"), sub.EndDate.In(loc).Format("02-Jan-2006"))
	pdf.CellFormat(colWidths[0], 8, plan.Name, "1", 0, "L", false, 0, "")
	pdf.CellFormat(colWidths[1], 8, period, "1", 0, "C", false, 0, "")
	pdf.CellFormat(colWidths[2], 8, fmt.Sprintf("%s %s", sub.Currency, sub.Amount.StringFixed(2)), "1", 0, "R", false, 0, "")
	pdf.Ln(14)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(130, 8, "TOTAL PAID:", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%s %s", sub.Currency, sub.Amount.StringFixed(2)), "", 0, "R", false, 0, "")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 8)
	pdf.Cell(0, 5, fmt.Sprintf("Status: %s", sub.Status))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
