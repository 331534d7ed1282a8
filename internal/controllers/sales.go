package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoice-settlement/internal/billing"
)

type SaleController struct {
	Billing *billing.Service
}

func (c SaleController) List(ctx *gin.Context) {
	p := pageOf(ctx)
	from, to, ok := dateRange(ctx)
	if !ok {
		return
	}
	list, total, err := c.Billing.ListSales(ctx.Request.Context(), actorOf(ctx), billing.SaleFilter{
		From:   from,
		To:     to,
		Limit:  p.limit,
		Offset: p.offset,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	p.respond(ctx, list, total)
}

func (c SaleController) GetByID(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	s, err := c.Billing.GetSale(ctx.Request.Context(), actorOf(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, s)
}

// Update and Delete exist so clients get the immutability answer instead of 404.
func (c SaleController) Update(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	respondError(ctx, c.Billing.AmendSale(ctx.Request.Context(), actorOf(ctx), id))
}

func (c SaleController) Delete(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	respondError(ctx, c.Billing.DeleteSale(ctx.Request.Context(), actorOf(ctx), id))
}
