package models

import "time"

type User struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// UserOrganization is a user's membership in an organization.
// At most one row exists per (organization, user).
type UserOrganization struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	OrganizationID int64     `json:"organization_id" gorm:"not null;uniqueIndex:idx_user_org"`
	UserID         int64     `json:"-" gorm:"not null;uniqueIndex:idx_user_org"`
	User           User      `json:"user" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time `json:"created_at"`
}

func (UserOrganization) TableName() string {
	return "user_organizations"
}
