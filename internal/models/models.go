package models

import (
	"time"
)

// Role is a user's role within a single course.
type Role string

const (
	RoleProfessor Role = "professor"
	RoleTA        Role = "ta"
	RoleStudent   Role = "student"
)

// IsStaff reports whether the role can staff a queue.
func (r Role) IsStaff() bool {
	return r == RoleProfessor || r == RoleTA
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleProfessor, RoleTA, RoleStudent:
		return true
	}
	return false
}

const (
	FirestoreUserProfilesCollection = "user_profiles"
	FirestoreCoursesCollection      = "courses"
)

// Profile is a collection of standard profile information for a user.
// This struct separates client-safe profile information from internal user metadata.
type Profile struct {
	DisplayName string `json:"displayName" mapstructure:"displayName"`
	Email       string `json:"email" mapstructure:"email"`
	PhotoURL    string `json:"photoUrl,omitempty" mapstructure:"photoUrl"`
	// IsAdmin marks a site administrator, who may create courses.
	IsAdmin bool `json:"isAdmin" mapstructure:"isAdmin"`
}

// User represents a registered user.
type User struct {
	*Profile
	ID string `json:"id" mapstructure:"id"`
}

type Course struct {
	ID      string    `json:"id" mapstructure:"id"`
	Title   string    `json:"title" mapstructure:"title"`
	Code    string    `json:"code" mapstructure:"code"`
	Term    string    `json:"term" mapstructure:"term"`
	Created time.Time `json:"createdAt" mapstructure:"createdAt"`
	// Roles maps user IDs to their role in the course.
	Roles map[string]Role `json:"-" mapstructure:"roles"`
}

// CourseView is the course as returned to a member of the course.
type CourseView struct {
	*Course
	Role   Role         `json:"role"`
	Queues []*QueueView `json:"queues"`
}

// CreateCourseRequest is the parameter struct to the CreateCourse function.
type CreateCourseRequest struct {
	Title string `json:"title" validate:"required,max=128"`
	Code  string `json:"code" validate:"required,max=32"`
	Term  string `json:"term" validate:"max=32"`
}

// SetCourseRoleRequest is the parameter struct to the SetCourseRole function.
type SetCourseRoleRequest struct {
	CourseID string `json:"-"`
	UserID   string `json:"userID" validate:"required"`
	Role     Role   `json:"role" validate:"required,oneof=professor ta student"`
}
