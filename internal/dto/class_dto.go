package dto

import (
	"time"

	"github.com/noah-isme/classhub-api/internal/models"
)

// ClassCreateRequest creates a class owned by the calling teacher.
type ClassCreateRequest struct {
	Name string `json:"name" validate:"required,min=2,max=255"`
}

// ClassJoinRequest enrolls the calling student by join code.
type ClassJoinRequest struct {
	Code string `json:"class_code" validate:"required,len=6"`
}

// ClassResponse is the public shape of a class.
type ClassResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"class_code"`
	TeacherID   uint      `json:"teacher_id"`
	TeacherName string    `json:"teacher_name,omitempty"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClassMemberResponse is one roster entry.
type ClassMemberResponse struct {
	UserID   uint      `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

// NewClassResponse converts a class model into its response shape.
func NewClassResponse(class models.Class) ClassResponse {
	return ClassResponse{
		ID:          class.ID,
		Name:        class.Name,
		Code:        class.Code,
		TeacherID:   class.TeacherID,
		TeacherName: class.Teacher.Name,
		MemberCount: len(class.Members),
		CreatedAt:   class.CreatedAt,
	}
}

// NewClassResponseSlice converts a slice of class models.
func NewClassResponseSlice(classes []models.Class) []ClassResponse {
	responses := make([]ClassResponse, 0, len(classes))
	for _, class := range classes {
		responses = append(responses, NewClassResponse(class))
	}
	return responses
}

// NewClassMemberResponseSlice converts roster rows.
func NewClassMemberResponseSlice(members []models.ClassMember) []ClassMemberResponse {
	responses := make([]ClassMemberResponse, 0, len(members))
	for _, member := range members {
		responses = append(responses, ClassMemberResponse{
			UserID:   member.UserID,
			Name:     member.User.Name,
			Email:    member.User.Email,
			JoinedAt: member.CreatedAt,
		})
	}
	return responses
}
