// Package invoice renders order invoices as PDF with a tracking QR code.
package invoice

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"

	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/money"
)

const (
	qrSize   = 256
	qrImage  = "tracking-qr"
	nameCols = 45
)

// TrackingQR encodes url as a PNG QR code.
func TrackingQR(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode tracking qr: %w", err)
	}
	return png, nil
}

func amount(cents int64) string {
	return money.Format(cents) + " $"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Render lays out the invoice of o. The QR code in the bottom corner links to trackingURL.
func Render(o event.OrderSnapshot, trackingURL string, issued time.Time) ([]byte, error) {
	qr, err := TrackingQR(trackingURL)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCreationDate(issued)
	pdf.SetTitle("Facture "+o.Number, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 10, "FACTURE")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, tr("Numéro: "+o.Number))
	pdf.Ln(6)
	created := o.CreatedAt
	if created.IsZero() {
		created = issued
	}
	pdf.Cell(0, 6, "Date: "+created.Format("02/01/2006"))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr("Livraison: "+o.DeliveryDate+" à "+o.DeliveryTime))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 7, "Client:")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{o.CustomerName(), o.Company, o.Email, o.Address, o.PostalCode + " " + o.City} {
		if line == "" || line == " " {
			continue
		}
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(6)
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(100, 7, "Article", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, tr("Qté"), "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Prix unit.", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range o.Items {
		pdf.CellFormat(100, 6, tr(truncate(it.Name, nameCols)), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprint(it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, amount(it.UnitPrice), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, amount(it.Total), "", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	total := func(label string, cents int64) {
		pdf.CellFormat(155, 6, tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, amount(cents), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 11)
	total("Sous-total:", o.Subtotal)
	if o.Discount > 0 {
		total("Remise:", -o.Discount)
	}
	total("Taxes:", o.Tax)
	if o.DeliveryFee > 0 {
		total("Livraison:", o.DeliveryFee)
	}
	pdf.SetFont("Helvetica", "B", 13)
	total("TOTAL:", o.Total)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(qrImage, opts, bytes.NewReader(qr))
	pdf.ImageOptions(qrImage, 165, 225, 35, 35, false, opts, 0, "")
	pdf.SetXY(120, 262)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(80, 4, tr("Suivez votre commande: "+trackingURL), "", 0, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", o.Number, err)
	}
	return buf.Bytes(), nil
}
