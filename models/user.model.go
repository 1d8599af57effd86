package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles mirror the platform's public naming
const (
	RoleStudent     = "aluno"
	RoleInstructor  = "instrutor"
	RoleInstitution = "instituicao"
	RoleAdmin       = "administrador"
)

// User statuses
const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
	UserStatusPending   = "pending"
)

type User struct {
	gorm.Model
	ProfileImage        string     `gorm:"default:''" json:"profile_image"`
	FullName            string     `gorm:"default:''" json:"full_name"`
	Email               string     `gorm:"unique;not null" json:"email"`
	Mobile              string     `gorm:"default:''" json:"mobile"`
	Role                string     `gorm:"default:'aluno'" json:"role"`
	Status              string     `gorm:"default:'active'" json:"status"`
	Password            string     `gorm:"not null" json:"-"`
	Bio                 string     `gorm:"type:text" json:"bio"`
	InstitutionName     string     `json:"institution_name"`
	IsEmailVerified     bool       `gorm:"default:false" json:"is_email_verified"`
	LastLogin           *time.Time `json:"last_login"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	IsDeleted           bool       `gorm:"default:false" json:"-"`
}

// IsInstructor reports whether the user may manage course content
func (u *User) IsInstructor() bool {
	return u.Role == RoleInstructor || u.Role == RoleInstitution || u.Role == RoleAdmin
}

// IsAdmin reports whether the user has platform admin rights
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
