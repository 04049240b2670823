package models

import "time"

// ClassCodeLength is the length of the human-enterable join code.
const ClassCodeLength = 6

// Class represents a group of students taught by one teacher.
// The join code is stored uppercase and carries a unique index so a
// collision surfaces as a constraint conflict instead of two live
// classes sharing a code.
type Class struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Name      string        `gorm:"size:255;not null" json:"name"`
	Code      string        `gorm:"size:16;uniqueIndex;not null" json:"class_code"`
	TeacherID uint          `gorm:"not null;index" json:"teacher_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Teacher   User          `gorm:"foreignKey:TeacherID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"teacher"`
	Members   []ClassMember `json:"members,omitempty"`
}

// ClassMember links a student to a class. The composite unique index
// makes "already enrolled" a storage-level conflict rather than an
// application-level check.
type ClassMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_class_members_class_user" json:"class_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_class_members_class_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Class     Class     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"class"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
}
