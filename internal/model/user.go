package model

import "time"

// Role is the closed set of actor roles. It is fixed at registration and
// never changes for the lifetime of the account.
type Role string

const (
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

func (r Role) IsDoctor() bool  { return r == RoleDoctor }
func (r Role) IsPatient() bool { return r == RolePatient }

// User represents a system actor, either a doctor or a patient.
type User struct {
	Base
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Role         Role       `json:"role" db:"role"`
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
}

func (u *User) IsDoctor() bool  { return u.Role.IsDoctor() }
func (u *User) IsPatient() bool { return u.Role.IsPatient() }

// RegisterRequest represents user registration parameters
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Role        Role   `json:"role" binding:"required,oneof=DOCTOR PATIENT"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
}

// LoginRequest represents login parameters
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest represents password change parameters
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// UpdateUserRequest represents profile update parameters. Role is
// deliberately absent: it cannot be changed after registration.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}
