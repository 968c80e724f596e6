package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/PhilHem/registry-server/backend/models"

	"gorm.io/gorm"
)

var (
	ErrDuplicateMembership = errors.New("user is already a member of the organization")
	ErrBlankUsername       = errors.New("username must not be blank")
)

// MembershipRepository reads and writes user/organization memberships.
type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// FindAllByOrganizationID returns every membership of the organization with its user loaded.
func (r *MembershipRepository) FindAllByOrganizationID(ctx context.Context, organizationID int64) ([]models.UserOrganization, error) {
	members := []models.UserOrganization{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("organization_id = ?", organizationID).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// FindOneByOrganizationIDAndUsername returns nil, nil when the user is not a member.
// Should legacy duplicates exist, the oldest row (lowest id) is returned.
func (r *MembershipRepository) FindOneByOrganizationIDAndUsername(ctx context.Context, organizationID int64, username string) (*models.UserOrganization, error) {
	db := r.db.WithContext(ctx)

	var m models.UserOrganization
	err := db.Preload("User").
		Where("organization_id = ?", organizationID).
		Where("user_id IN (?)", userIDByName(db, username)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// Add makes username a member of the organization, creating the user row on first use.
func (r *MembershipRepository) Add(ctx context.Context, organizationID int64, username string) (*models.UserOrganization, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrBlankUsername
	}

	var m models.UserOrganization
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where(models.User{Username: username}).FirstOrCreate(&user).Error; err != nil {
			return err
		}

		var count int64
		err := tx.Model(&models.UserOrganization{}).
			Where("organization_id = ? AND user_id = ?", organizationID, user.ID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateMembership
		}

		m = models.UserOrganization{OrganizationID: organizationID, UserID: user.ID, User: user}
		if err := tx.Omit("User").Create(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateMembership
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Remove deletes the membership and reports whether one existed.
func (r *MembershipRepository) Remove(ctx context.Context, organizationID int64, username string) (bool, error) {
	db := r.db.WithContext(ctx)
	result := db.
		Where("organization_id = ?", organizationID).
		Where("user_id IN (?)", userIDByName(db, username)).
		Delete(&models.UserOrganization{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func userIDByName(db *gorm.DB, username string) *gorm.DB {
	return db.Model(&models.User{}).Select("id").Where("username = ?", username)
}
