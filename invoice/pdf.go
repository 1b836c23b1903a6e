package invoice

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"matjar-backend/models"
)

// RenderPDF produces an A4 invoice for a completed sale. The caller streams
// the returned bytes as application/pdf.
func RenderPDF(sale *models.Sale, branch *models.Branch) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, branch.Name)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	if branch.Address != "" {
		pdf.Cell(0, 6, branch.Address)
		pdf.Ln(5)
	}
	if branch.Phone != "" {
		pdf.Cell(0, 6, "Tel: "+branch.Phone)
		pdf.Ln(5)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Invoice "+sale.InvoiceNumber)
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, sale.CreatedAt.Format(time.RFC1123))
	pdf.Ln(6)

	// Customer block
	if sale.CustomerName != "" {
		pdf.Cell(0, 6, "Customer: "+sale.CustomerName)
		pdf.Ln(5)
	}
	if sale.CustomerPhone != "" {
		pdf.Cell(0, 6, "Phone: "+sale.CustomerPhone)
		pdf.Ln(5)
	}
	pdf.Ln(4)

	// Line items table
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(80, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, "Total", "1", 0, "R", true, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range sale.Items {
		pdf.CellFormat(80, 7, item.ProductName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, trimQuantity(item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", item.LineTotal), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(3)

	// Totals
	pdf.SetFont("Helvetica", "", 10)
	writeTotalRow(pdf, "Subtotal", sale.Subtotal)
	if sale.Discount > 0 {
		writeTotalRow(pdf, "Discount", -sale.Discount)
	}
	pdf.SetFont("Helvetica", "B", 12)
	writeTotalRow(pdf, "Total", sale.Total)

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, "Payment: "+sale.PaymentMethod)
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, "Thank you for shopping with us")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice PDF: %v", err)
	}
	return buf.Bytes(), nil
}

func writeTotalRow(pdf *gofpdf.Fpdf, label string, amount float64) {
	pdf.CellFormat(140, 7, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", amount), "", 0, "R", false, 0, "")
	pdf.Ln(-1)
}

// trimQuantity prints whole quantities without the decimal tail while
// keeping fractional ones (weighed items) at 3 places.
func trimQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.3f", q)
}
