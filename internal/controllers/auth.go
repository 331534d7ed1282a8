package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoice-settlement/internal/accounts"
	"invoice-settlement/internal/middleware"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthController struct {
	Accounts *accounts.Service
}

func (c AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err.Error())
		return
	}
	res, err := c.Accounts.Login(ctx.Request.Context(), req.Email, req.Password, ctx.ClientIP())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

func (c AuthController) Logout(ctx *gin.Context) {
	claims := middleware.Claims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}
	if err := c.Accounts.Logout(ctx.Request.Context(), claims); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the account behind the current token.
func (c AuthController) Me(ctx *gin.Context) {
	a := actorOf(ctx)
	ctx.JSON(http.StatusOK, gin.H{"id": a.UserID, "name": a.Name, "role": a.Role})
}
