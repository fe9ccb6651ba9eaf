// Package account manages customer and admin accounts.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/models"
	"github.com/Mouuuuu1/valoria/services/catalog"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"max=40"`
}

// ProfileInput updates the caller's own profile; nil fields are unchanged.
type ProfileInput struct {
	Name            *string                 `json:"name"`
	Phone           *string                 `json:"phone"`
	ShippingProfile *models.ShippingAddress `json:"shipping_profile"`
}

type UserPage struct {
	Users      []models.User      `json:"users"`
	Pagination catalog.Pagination `json:"pagination"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := apperr.Struct(in); err != nil {
		return nil, err
	}
	return s.create(ctx, in, models.RoleCustomer)
}

func (s *Service) create(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var taken int64
	if err := db.Model(&models.User{}).Where("email = ?", in.Email).Count(&taken).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken > 0 {
		return nil, apperr.Conflict("email %s is already registered", in.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        in.Phone,
	}
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("email %s is already registered", in.Email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("User registered", zap.Uint("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %d not found", id)
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		updates["name"] = name
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.ShippingProfile != nil {
		if err := apperr.Struct(*in.ShippingProfile); err != nil {
			return nil, err
		}
		p := in.ShippingProfile
		updates["ship_full_name"] = p.FullName
		updates["ship_street"] = p.Street
		updates["ship_city"] = p.City
		updates["ship_region"] = p.Region
		updates["ship_postal_code"] = p.PostalCode
		updates["ship_country"] = p.Country
		updates["ship_phone"] = p.Phone
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update user %d: %w", id, err)
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, page, limit int) (*UserPage, error) {
	page, limit = catalog.NormalizePage(page, limit, 20)
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	users := []models.User{}
	if err := db.Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &UserPage{Users: users, Pagination: catalog.NewPagination(page, limit, total)}, nil
}

// UpdateRole switches a stored account between customer and admin.
func (s *Service) UpdateRole(ctx context.Context, id uint, role string) (*models.User, error) {
	r := models.Role(strings.ToLower(strings.TrimSpace(role)))
	if r != models.RoleCustomer && r != models.RoleAdmin {
		return nil, apperr.Validation("role must be customer or admin")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", r).Error; err != nil {
		return nil, fmt.Errorf("update role of user %d: %w", id, err)
	}
	user.Role = r
	s.logger.Info("User role changed", zap.Uint("user_id", id), zap.String("role", string(r)))
	return user, nil
}

// Delete removes the account and its cart. Orders keep their user_id and
// shipping snapshot.
func (s *Service) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete user %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("user %d not found", id)
		}
		owner := (&models.User{ID: id}).Subject()
		if err := tx.Where("owner_id = ?", owner).Delete(&models.Cart{}).Error; err != nil {
			return fmt.Errorf("delete cart of user %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("User deleted", zap.Uint("user_id", id))
	return nil
}

// EnsureAdmin provisions the bootstrap administrator when no account uses
// email yet. An existing account is left untouched.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load admin: %w", err)
	}
	in := RegisterInput{Name: name, Email: email, Password: password}
	if err := apperr.Struct(in); err != nil {
		return nil, err
	}
	return s.create(ctx, in, models.RoleAdmin)
}
