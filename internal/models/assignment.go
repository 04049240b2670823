package models

import "time"

// Assignment represents homework published to a class. Rubric and
// answer key are optional grading aids fed verbatim into the scoring
// prompt; they are never shown to students.
type Assignment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	ClassID     uint         `gorm:"not null;index" json:"class_id"`
	TeacherID   uint         `gorm:"not null;index" json:"teacher_id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	DueDate     time.Time    `gorm:"not null" json:"due_date"`
	Rubric      string       `gorm:"type:text" json:"rubric,omitempty"`
	AnswerKey   string       `gorm:"type:text" json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Class       Class        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"class"`
	Submissions []Submission `json:"submissions,omitempty"`
}

// IsPastDue returns true when the deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}
