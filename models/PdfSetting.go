package models

import "time"

type PdfSetting struct {
	ID             uint64    `json:"id" gorm:"primaryKey"`
	CompanyName    string    `json:"company_name" gorm:"type:varchar(255)"`
	CompanyAddress string    `json:"company_address" gorm:"type:text"`
	CompanyPhone   string    `json:"company_phone" gorm:"type:varchar(64)"`
	CompanyEmail   string    `json:"company_email" gorm:"type:varchar(255)"`
	FooterNote     string    `json:"footer_note" gorm:"type:text"`
	LogoPath       string    `json:"logo_path" gorm:"type:varchar(512)"`
	SignaturePath  string    `json:"signature_path" gorm:"type:varchar(512)"`
	UpdatedAt      time.Time `json:"updated_at"`
}
