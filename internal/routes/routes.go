package routes

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"invoice-settlement/internal/accounts"
	"invoice-settlement/internal/analytics"
	"invoice-settlement/internal/billing"
	"invoice-settlement/internal/controllers"
	"invoice-settlement/internal/middleware"
	"invoice-settlement/models"
)

type Deps struct {
	Billing     *billing.Service
	Accounts    *accounts.Service
	Analytics   *analytics.Service
	Images      controllers.ImageStore
	CORSOrigins []string
	Now         func() time.Time
}

func Register(d Deps) *gin.Engine {
	if d.Now == nil {
		d.Now = time.Now
	}
	inv := controllers.InvoiceController{Billing: d.Billing, Now: d.Now}
	pay := controllers.PaymentController{Billing: d.Billing, Invoices: inv}
	sale := controllers.SaleController{Billing: d.Billing}
	set := controllers.SettingsController{Billing: d.Billing, Images: d.Images}
	authc := controllers.AuthController{Accounts: d.Accounts}
	owner := controllers.OwnerController{Analytics: d.Analytics, Accounts: d.Accounts}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(corsConfig(d.CORSOrigins)))
	api := r.Group("/api/v1")

	api.POST("/login", authc.Login)

	staff := api.Group("", middleware.AuthMiddleware(d.Accounts),
		middleware.RequireRole(models.RoleAdmin, models.RoleOwner))
	staff.POST("/logout", authc.Logout)
	staff.GET("/me", authc.Me)

	staff.GET("/invoices", inv.List)
	staff.POST("/invoices", inv.Create)
	staff.GET("/invoices/next-number", inv.NextNumber)
	staff.GET("/invoices/:id", inv.GetByID)
	staff.DELETE("/invoices/:id", inv.Delete)
	staff.GET("/invoices/:id/pdf", inv.PDF)

	staff.GET("/payments", pay.List)
	staff.POST("/payments", pay.Create)
	staff.GET("/payments/search-invoices", pay.SearchInvoices)
	staff.GET("/payments/:id", pay.GetByID)
	staff.GET("/payments/:id/receipt", pay.Receipt)
	staff.GET("/payments/:id/receipt.pdf", pay.ReceiptPDF)

	staff.GET("/sales", sale.List)
	staff.GET("/sales/:id", sale.GetByID)
	staff.PUT("/sales/:id", sale.Update)
	staff.DELETE("/sales/:id", sale.Delete)

	staff.GET("/pdf-settings", set.Get)
	staff.POST("/pdf-settings", set.Save)

	ow := staff.Group("/owner", middleware.RequireRole(models.RoleOwner))
	ow.GET("/analytics", owner.Overview)
	ow.GET("/dashboard", owner.Dashboard)
	ow.GET("/admin-activity", owner.AdminActivity)
	ow.GET("/admin-activity/:id", owner.AdminDetail)
	ow.GET("/admin-credentials", owner.ListAdmins)
	ow.POST("/admin-credentials", owner.CreateAdmin)
	ow.GET("/admin-credentials/:id", owner.GetAdmin)
	ow.PUT("/admin-credentials/:id", owner.UpdateAdmin)
	ow.DELETE("/admin-credentials/:id", owner.DeleteAdmin)

	return r
}

// corsConfig allows every origin when none is configured or "*" is listed.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: false,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
	}
	return cfg
}
