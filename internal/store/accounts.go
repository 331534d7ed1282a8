package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"invoice-settlement/internal/accounts"
	"invoice-settlement/models"
)

func accountErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return accounts.ErrUserNotFound
	case IsUniqueViolation(err):
		return accounts.ErrEmailTaken
	}
	return err
}

func (g *Gorm) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := g.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, accountErr(err)
	}
	return &u, nil
}

func (g *Gorm) UserByID(ctx context.Context, id uint64) (*models.User, error) {
	var u models.User
	if err := g.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, accountErr(err)
	}
	return &u, nil
}

func (g *Gorm) ListUsers(ctx context.Context, role models.RoleType) ([]models.User, error) {
	list := []models.User{}
	err := g.db.WithContext(ctx).Where("role = ?", role).Order("name, id").Find(&list).Error
	return list, err
}

func (g *Gorm) CreateUser(ctx context.Context, u *models.User) error {
	return accountErr(g.db.WithContext(ctx).Create(u).Error)
}

func (g *Gorm) UpdateUser(ctx context.Context, u *models.User) error {
	err := g.db.WithContext(ctx).Model(u).Select("name", "email", "password_hash", "is_active").Updates(u).Error
	return accountErr(err)
}

// DeleteUser soft deletes so invoices keep a resolvable creator.
func (g *Gorm) DeleteUser(ctx context.Context, id uint64) error {
	res := g.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return accounts.ErrUserNotFound
	}
	return nil
}

func (g *Gorm) RecordLogin(ctx context.Context, userID uint64, ip string, at time.Time) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.LoginHistory{UserID: userID, IPAddress: ip, LoginTime: at}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("last_login_at", at).Error
	})
}

// RevokeToken remembers a logged out token id and drops ids whose tokens
// have expired on their own.
func (g *Gorm) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	db := g.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RevokedToken{TokenID: tokenID, ExpiresAt: expiresAt}).Error
	if err != nil {
		return err
	}
	return db.Where("expires_at < ?", time.Now()).Delete(&models.RevokedToken{}).Error
}

func (g *Gorm) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	return exists(g.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("token_id = ?", tokenID))
}
