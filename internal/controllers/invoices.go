package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"invoice-settlement/internal/billing"
	"invoice-settlement/models"
)

type InvoiceController struct {
	Billing *billing.Service
	Now     func() time.Time
}

type InvoicePayload struct {
	InvoiceNumber  string          `json:"invoice_number"`
	CustomerName   string          `json:"customer_name"`
	Organization   string          `json:"organization"`
	BillTo         string          `json:"bill_to"`
	ShipTo         string          `json:"ship_to"`
	PONumber       string          `json:"po_number"`
	RequestedBy    string          `json:"requested_by"`
	DeliveryMethod string          `json:"delivery_method"`
	InvoiceDate    string          `json:"invoice_date"`
	DueDate        string          `json:"due_date"`
	Tax            decimal.Decimal `json:"tax"`
	Items          []struct {
		Description string          `json:"description"`
		Quantity    int             `json:"quantity"`
		UnitPrice   decimal.Decimal `json:"unit_price"`
	} `json:"items"`
}

func (p InvoicePayload) input() (billing.InvoiceInput, error) {
	in := billing.InvoiceInput{
		InvoiceNumber:  p.InvoiceNumber,
		CustomerName:   p.CustomerName,
		Organization:   p.Organization,
		BillTo:         p.BillTo,
		ShipTo:         p.ShipTo,
		PONumber:       p.PONumber,
		RequestedBy:    p.RequestedBy,
		DeliveryMethod: p.DeliveryMethod,
		Tax:            p.Tax,
	}
	v := billing.ValidationErrors{}
	var err error
	if in.InvoiceDate, err = parseDate(p.InvoiceDate); err != nil {
		v.Add("invoice_date", err.Error())
	}
	if in.DueDate, err = parseDate(p.DueDate); err != nil {
		v.Add("due_date", err.Error())
	}
	for _, item := range p.Items {
		in.Items = append(in.Items, billing.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return in, v.Err()
}

// invoiceView adds the derived overdue flag to the stored invoice.
type invoiceView struct {
	*models.Invoice
	Overdue bool `json:"overdue"`
}

func (c InvoiceController) view(inv *models.Invoice) invoiceView {
	return invoiceView{Invoice: inv, Overdue: inv.IsOverdue(c.Now())}
}

func (c InvoiceController) views(list []models.Invoice) []invoiceView {
	out := make([]invoiceView, 0, len(list))
	for i := range list {
		out = append(out, c.view(&list[i]))
	}
	return out
}

func (c InvoiceController) Create(ctx *gin.Context) {
	var payload InvoicePayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		badRequest(ctx, err.Error())
		return
	}
	in, err := payload.input()
	if err != nil {
		respondError(ctx, err)
		return
	}
	inv, err := c.Billing.CreateInvoice(ctx.Request.Context(), actorOf(ctx), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, c.view(inv))
}

func (c InvoiceController) List(ctx *gin.Context) {
	p := pageOf(ctx)
	from, to, ok := dateRange(ctx)
	if !ok {
		return
	}
	f := billing.InvoiceFilter{
		Status: models.InvoiceStatusType(ctx.Query("status")),
		Query:  ctx.Query("q"),
		From:   from,
		To:     to,
		Limit:  p.limit,
		Offset: p.offset,
	}
	list, total, err := c.Billing.ListInvoices(ctx.Request.Context(), actorOf(ctx), f)
	if err != nil {
		respondError(ctx, err)
		return
	}
	p.respond(ctx, c.views(list), total)
}

func (c InvoiceController) GetByID(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	inv, err := c.Billing.GetInvoice(ctx.Request.Context(), actorOf(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, c.view(inv))
}

func (c InvoiceController) Delete(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.Billing.DeleteInvoice(ctx.Request.Context(), actorOf(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Invoice deleted successfully"})
}

func (c InvoiceController) NextNumber(ctx *gin.Context) {
	n, err := c.Billing.NextInvoiceNumber(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"invoice_number": n})
}

func (c InvoiceController) PDF(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	inv, doc, err := c.Billing.InvoicePDF(ctx.Request.Context(), actorOf(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	sendPDF(ctx, inv.InvoiceNumber+".pdf", doc)
}
