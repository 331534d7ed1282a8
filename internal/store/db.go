// Package store persists the settlement data through gorm on MySQL or
// Postgres. The storetest subpackage keeps an in-memory equivalent for tests.
package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"invoice-settlement/internal/auth"
	"invoice-settlement/internal/config"
	"invoice-settlement/models"
)

// Open connects to the configured database and checks it answers.
func Open(cfg config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormLogLevel(cfg.DBLogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// Migrate creates or updates every table and the composite indexes the
// listings and rollups filter on.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.LoginHistory{},
		&models.RevokedToken{},
		&models.PdfSetting{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.Sale{},
	)
	if err != nil {
		return err
	}

	indexStmts := []string{
		`CREATE INDEX idx_invoices_creator_date ON invoices (created_by_user_id, invoice_date)`,
		`CREATE INDEX idx_invoices_status_due ON invoices (status, due_date)`,
		`CREATE INDEX idx_payments_invoice_paid ON payments (invoice_id, paid_at)`,
		`CREATE INDEX idx_payments_method_paid ON payments (payment_method, paid_at)`,
		`CREATE INDEX idx_sales_created ON sales (created_at)`,
	}
	// Re-running fails with "duplicate key name" on MySQL and "already
	// exists" on Postgres; both are expected.
	for _, s := range indexStmts {
		if err := db.Exec(s).Error; err != nil {
			log.Debug().Err(err).Msg("index already present")
		}
	}
	return nil
}

const devPassword = "password123"

// SeedDev fills an empty database with an owner, one admin, branding and a
// few open invoices.
func SeedDev(db *gorm.DB) error {
	hash, err := auth.HashPassword(devPassword)
	if err != nil {
		return err
	}
	users := []models.User{
		{Name: "Owner", Email: "owner@example.com", PasswordHash: hash, Role: models.RoleOwner, IsActive: true},
		{Name: "Front Desk", Email: "admin@example.com", PasswordHash: hash, Role: models.RoleAdmin, IsActive: true},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&users).Error; err != nil {
		return err
	}

	var cnt int64
	if err := db.Model(&models.PdfSetting{}).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		s := models.PdfSetting{
			CompanyName:    "Northwind Supplies",
			CompanyAddress: "12 Harbour Road",
			CompanyPhone:   "+1 555 0100",
			CompanyEmail:   "billing@example.com",
			FooterNote:     "Thank you for your business.",
		}
		if err := db.Create(&s).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&models.Invoice{}).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt > 0 {
		return nil
	}
	var admin models.User
	if err := db.Where("email = ?", "admin@example.com").First(&admin).Error; err != nil {
		return err
	}

	customers := []string{"Acme Trading", "Blue River Cafe", "Kestrel Logistics", "Mango Street Pharmacy"}
	today := time.Now().Truncate(24 * time.Hour)
	for i, customer := range customers {
		issued := today.AddDate(0, 0, -7*i)
		unit := decimal.NewFromInt(int64(25 * (i + 1)))
		qty := i + 2
		amount := unit.Mul(decimal.NewFromInt(int64(qty)))
		tax := amount.Mul(decimal.NewFromFloat(0.1)).Round(2)
		total := amount.Add(tax)
		inv := models.Invoice{
			InvoiceNumber:    fmt.Sprintf("INV-%s-%04d", issued.Format("20060102"), i+1),
			CustomerName:     customer,
			BillTo:           customer,
			InvoiceDate:      issued,
			DueDate:          issued.AddDate(0, 0, 14),
			Subtotal:         amount,
			Tax:              tax,
			Total:            total,
			AmountPaid:       decimal.Zero,
			BalanceRemaining: total,
			Status:           models.InvoiceStatusPending,
			CreatedByUserID:  admin.ID,
			Items: []models.InvoiceItem{
				{Description: "Service package", Quantity: qty, UnitPrice: unit, Amount: amount},
			},
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&inv).Error
		})
		if err != nil {
			return err
		}
	}
	log.Info().Str("password", devPassword).Msg("seeded development accounts owner@example.com and admin@example.com")
	return nil
}
