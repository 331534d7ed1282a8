package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"invoice-settlement/internal/accounts"
	"invoice-settlement/internal/analytics"
)

type OwnerController struct {
	Analytics *analytics.Service
	Accounts  *accounts.Service
}

func (c OwnerController) window(ctx *gin.Context) (analytics.Window, bool) {
	w, err := analytics.ParseWindow(ctx.Query("range"), ctx.Query("from"), ctx.Query("to"), c.Analytics.Now())
	if err != nil {
		invalid(ctx, "range", err.Error())
		return analytics.Window{}, false
	}
	return w, true
}

// Overview answers /owner/analytics, optionally narrowed to one admin.
func (c OwnerController) Overview(ctx *gin.Context) {
	w, ok := c.window(ctx)
	if !ok {
		return
	}
	scope := analytics.Scope{Actor: actorOf(ctx)}
	if v := ctx.Query("admin_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			invalid(ctx, "admin_id", "admin_id must be a number")
			return
		}
		scope.AdminID = id
	}
	o, err := c.Analytics.Overview(ctx.Request.Context(), scope, w)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, o)
}

func (c OwnerController) Dashboard(ctx *gin.Context) {
	d, err := c.Analytics.Dashboard(ctx.Request.Context(), analytics.Scope{Actor: actorOf(ctx)})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}

func (c OwnerController) AdminActivity(ctx *gin.Context) {
	w, ok := c.window(ctx)
	if !ok {
		return
	}
	rows, err := c.Analytics.AdminActivity(ctx.Request.Context(), w)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"window": w, "items": rows})
}

func (c OwnerController) AdminDetail(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	w, ok := c.window(ctx)
	if !ok {
		return
	}
	d, err := c.Analytics.AdminDetail(ctx.Request.Context(), analytics.Scope{Actor: actorOf(ctx)}, id, w)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}

type adminPayload struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	IsActive *bool   `json:"is_active"`
}

func (c OwnerController) ListAdmins(ctx *gin.Context) {
	list, err := c.Accounts.ListAdmins(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"items": list})
}

func (c OwnerController) GetAdmin(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	u, err := c.Accounts.GetAdmin(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, u)
}

func (c OwnerController) CreateAdmin(ctx *gin.Context) {
	var p adminPayload
	if err := ctx.ShouldBindJSON(&p); err != nil {
		badRequest(ctx, err.Error())
		return
	}
	in := accounts.AdminInput{}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Email != nil {
		in.Email = *p.Email
	}
	if p.Password != nil {
		in.Password = *p.Password
	}
	u, err := c.Accounts.CreateAdmin(ctx.Request.Context(), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, u)
}

func (c OwnerController) UpdateAdmin(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var p adminPayload
	if err := ctx.ShouldBindJSON(&p); err != nil {
		badRequest(ctx, err.Error())
		return
	}
	u, err := c.Accounts.UpdateAdmin(ctx.Request.Context(), id, accounts.AdminUpdate{
		Name:     p.Name,
		Email:    p.Email,
		Password: p.Password,
		IsActive: p.IsActive,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, u)
}

func (c OwnerController) DeleteAdmin(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.Accounts.DeleteAdmin(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Admin deleted successfully"})
}
