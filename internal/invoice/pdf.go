package invoice

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/NGxID18/CureCart/internal/order"
)

const (
	margin     = 50.0
	lineHeight = 16.0

	colProduct  = 50.0
	colQuantity = 250.0
	colPrice    = 350.0
	colSubtotal = 450.0
)

type Line struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Document is everything printed on an invoice. Total is taken as stored
// on the order and is never recomputed from the lines.
type Document struct {
	OrderID       string
	Date          time.Time
	Status        string
	CustomerName  string
	CustomerEmail string
	Lines         []Line
	Total         decimal.Decimal
}

func NewDocument(inv *order.Invoice) Document {
	doc := Document{
		OrderID:       inv.ID.String(),
		Date:          inv.CreatedAt,
		Status:        inv.Status.String(),
		CustomerName:  inv.CustomerName,
		CustomerEmail: inv.CustomerEmail,
		Lines:         make([]Line, 0, len(inv.OrderItems)),
		Total:         inv.TotalAmount,
	}
	for _, item := range inv.OrderItems {
		doc.Lines = append(doc.Lines, Line{Name: item.ProductName, Quantity: item.Quantity, UnitPrice: item.PriceAtPurchase})
	}
	return doc
}

// Filename is the attachment name offered to the browser.
func (d Document) Filename() string {
	return fmt.Sprintf("invoice-%s.pdf", d.OrderID)
}

type Options struct {
	Compress bool
}

// RenderPDF writes a single A4 invoice to w.
func RenderPDF(w io.Writer, doc Document) error {
	return RenderPDFWithOptions(w, doc, Options{Compress: true})
}

func RenderPDFWithOptions(w io.Writer, doc Document, opts Options) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCompression(opts.Compress)
	pdf.SetTitle("Invoice #"+doc.OrderID, true)
	pdf.SetCreationDate(doc.Date)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	subtotalWidth := pageWidth - margin - colSubtotal

	pdf.SetFont("Helvetica", "", 20)
	pdf.CellFormat(0, 28, tr("Invoice #"+doc.OrderID), "", 1, "C", false, 0, "")
	pdf.Ln(lineHeight)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, lineHeight, "Tanggal: "+FormatDate(doc.Date), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Status: "+doc.Status, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, tr(fmt.Sprintf("Pelanggan: %s (%s)", doc.CustomerName, doc.CustomerEmail)), "", 1, "L", false, 0, "")
	pdf.Ln(lineHeight)

	row := func(name, qty, price, subtotal string) {
		y := pdf.GetY()
		pdf.SetXY(colProduct, y)
		pdf.CellFormat(colQuantity-colProduct, lineHeight, tr(name), "", 0, "L", false, 0, "")
		pdf.SetXY(colQuantity, y)
		pdf.CellFormat(colPrice-colQuantity, lineHeight, qty, "", 0, "L", false, 0, "")
		pdf.SetXY(colPrice, y)
		pdf.CellFormat(colSubtotal-colPrice, lineHeight, price, "", 0, "L", false, 0, "")
		pdf.SetXY(colSubtotal, y)
		pdf.CellFormat(subtotalWidth, lineHeight, subtotal, "", 1, "R", false, 0, "")
		pdf.Ln(lineHeight / 2)
	}

	pdf.SetFont("Helvetica", "B", 12)
	row("Produk", "Jumlah", "Harga Satuan", "Subtotal")

	pdf.SetFont("Helvetica", "", 12)
	for _, line := range doc.Lines {
		row(line.Name, strconv.Itoa(line.Quantity), FormatRupiah(line.UnitPrice), FormatRupiah(line.Subtotal()))
	}

	pdf.Ln(lineHeight)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 20, "Total: "+FormatRupiah(doc.Total), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("invoice: failed to render pdf for order %s: %w", doc.OrderID, err)
	}
	return nil
}
