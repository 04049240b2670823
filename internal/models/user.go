package models

import "time"

// Roles a user can hold. The role is assigned at signup and never
// changes afterwards.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// User represents an account that can teach or attend classes.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsTeacher reports whether the user holds the teacher role.
func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

// IsStudent reports whether the user holds the student role.
func (u User) IsStudent() bool {
	return u.Role == RoleStudent
}
