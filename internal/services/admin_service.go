package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/models"
	apperrors "github.com/aufildessentiers/backend/pkg/errors"
)

// ErrLastAdmin protects the final admin account from demotion or deletion.
var ErrLastAdmin = apperrors.New("LAST_ADMIN", "The last admin account cannot be removed", http.StatusBadRequest)

// DashboardStats aggregates counts for the admin dashboard.
type DashboardStats struct {
	Users          map[string]int64 `json:"users"`
	Events         map[string]int64 `json:"events"`
	Registrations  map[string]int64 `json:"registrations"`
	UnreadContacts int64            `json:"unread_contacts"`
}

// ListUsersOptions controls filtering and pagination of the admin user list.
type ListUsersOptions struct {
	Status   string
	Page     int
	PageSize int
}

// AdminService backs the admin dashboard: stats and user management.
type AdminService struct {
	db *gorm.DB
}

// NewAdminService constructs an AdminService instance.
func NewAdminService(db *gorm.DB) (*AdminService, error) {
	if db == nil {
		return nil, errors.New("admin service: db is required")
	}
	return &AdminService{db: db}, nil
}

// Stats aggregates platform counts grouped by status.
func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	ctx = ensureContext(ctx)

	stats := &DashboardStats{
		Users:         map[string]int64{},
		Events:        map[string]int64{},
		Registrations: map[string]int64{},
	}

	if err := countByStatus(s.db.WithContext(ctx), &models.User{}, stats.Users); err != nil {
		return nil, fmt.Errorf("admin service: user stats: %w", err)
	}
	if err := countByStatus(s.db.WithContext(ctx), &models.Event{}, stats.Events); err != nil {
		return nil, fmt.Errorf("admin service: event stats: %w", err)
	}
	if err := countByStatus(s.db.WithContext(ctx), &models.EventRegistration{}, stats.Registrations); err != nil {
		return nil, fmt.Errorf("admin service: registration stats: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Contact{}).
		Where("is_read = ?", false).
		Count(&stats.UnreadContacts).Error; err != nil {
		return nil, fmt.Errorf("admin service: contact stats: %w", err)
	}

	return stats, nil
}

// ListUsers returns users filtered by status with the total for pagination.
func (s *AdminService) ListUsers(ctx context.Context, opts ListUsersOptions) ([]models.User, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize := normalisePage(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.User{})
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("admin service: count users: %w", err)
	}

	var users []models.User
	err := query.
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("admin service: list users: %w", err)
	}

	return users, total, nil
}

// SetUserStatus moves a user between pending, active, and banned.
func (s *AdminService) SetUserStatus(ctx context.Context, userID uint, status string) (*models.User, error) {
	ctx = ensureContext(ctx)

	switch status {
	case models.StatusPending, models.StatusActive, models.StatusBanned:
	default:
		return nil, apperrors.NewBadRequest("unknown user status")
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("admin service: load user: %w", err)
	}

	if user.IsAdmin() && status != models.StatusActive {
		last, err := s.isLastAdmin(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if last {
			return nil, ErrLastAdmin
		}
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("admin service: update status: %w", err)
	}
	user.Status = status
	return &user, nil
}

// DeleteUser removes a user; registrations and tokens cascade away.
func (s *AdminService) DeleteUser(ctx context.Context, userID uint) error {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("admin service: load user: %w", err)
	}

	if user.IsAdmin() {
		last, err := s.isLastAdmin(ctx, user.ID)
		if err != nil {
			return err
		}
		if last {
			return ErrLastAdmin
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.EventRegistration{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.VerificationToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&user).Error
	})
}

func (s *AdminService) isLastAdmin(ctx context.Context, excludeID uint) (bool, error) {
	var others int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND status = ? AND id <> ?", models.RoleAdmin, models.StatusActive, excludeID).
		Count(&others).Error
	if err != nil {
		return false, fmt.Errorf("admin service: count admins: %w", err)
	}
	return others == 0, nil
}

func countByStatus(db *gorm.DB, model any, out map[string]int64) error {
	type row struct {
		Status string
		Count  int64
	}

	var rows []row
	if err := db.Model(model).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error; err != nil {
		return err
	}

	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return nil
}
