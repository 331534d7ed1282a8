package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"invoice-settlement/internal/billing"
	"invoice-settlement/models"
)

type PaymentController struct {
	Billing  *billing.Service
	Invoices InvoiceController
}

type PaymentPayload struct {
	InvoiceID     uint64                   `json:"invoice_id"`
	AmountPaid    decimal.Decimal          `json:"amount_paid"`
	PaymentMethod models.PaymentMethodType `json:"payment_method"`
	Notes         string                   `json:"notes"`
}

func (c PaymentController) Create(ctx *gin.Context) {
	var payload PaymentPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		badRequest(ctx, err.Error())
		return
	}
	s, err := c.Billing.RecordPayment(ctx.Request.Context(), actorOf(ctx), billing.PaymentInput{
		InvoiceID: payload.InvoiceID,
		Amount:    payload.AmountPaid,
		Method:    payload.PaymentMethod,
		Notes:     payload.Notes,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"payment":   s.Payment,
		"invoice":   c.Invoices.view(s.Invoice),
		"sale":      s.Sale,
		"completed": s.Sale != nil,
	})
}

func (c PaymentController) List(ctx *gin.Context) {
	p := pageOf(ctx)
	from, to, ok := dateRange(ctx)
	if !ok {
		return
	}
	f := billing.PaymentFilter{
		Method: models.PaymentMethodType(ctx.Query("method")),
		From:   from,
		To:     to,
		Limit:  p.limit,
		Offset: p.offset,
	}
	if v := ctx.Query("invoice_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			invalid(ctx, "invoice_id", "invoice_id must be a number")
			return
		}
		f.InvoiceID = id
	}
	list, total, err := c.Billing.ListPayments(ctx.Request.Context(), actorOf(ctx), f)
	if err != nil {
		respondError(ctx, err)
		return
	}
	p.respond(ctx, list, total)
}

func (c PaymentController) GetByID(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	pay, err := c.Billing.GetPayment(ctx.Request.Context(), actorOf(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, pay)
}

// SearchInvoices backs the invoice picker of the payment form.
func (c PaymentController) SearchInvoices(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	list, err := c.Billing.SearchPayableInvoices(ctx.Request.Context(), actorOf(ctx), ctx.Query("q"), limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"items": c.Invoices.views(list)})
}

func (c PaymentController) Receipt(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	r, err := c.Billing.Receipt(ctx.Request.Context(), actorOf(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, r)
}

func (c PaymentController) ReceiptPDF(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	r, doc, err := c.Billing.ReceiptPDF(ctx.Request.Context(), actorOf(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	sendPDF(ctx, r.Payment.ReceiptNumber+".pdf", doc)
}
