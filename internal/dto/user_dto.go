package dto

import "time"

type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,username"`
	Email       string `json:"email" binding:"required,email,max=100"`
	FirstName   string `json:"first_name" binding:"max=100"`
	LastName    string `json:"last_name" binding:"max=100"`
	Bio         string `json:"bio"`
	Role        string `json:"role" binding:"omitempty,oneof=user moderator admin"`
	IsSuperuser bool   `json:"is_superuser"`
}

// UpdateUserRequest is the admin-path patch: every field, role included.
type UpdateUserRequest struct {
	Username    *string `json:"username" binding:"omitempty,username"`
	Email       *string `json:"email" binding:"omitempty,email,max=100"`
	FirstName   *string `json:"first_name" binding:"omitempty,max=100"`
	LastName    *string `json:"last_name" binding:"omitempty,max=100"`
	Bio         *string `json:"bio"`
	Role        *string `json:"role" binding:"omitempty,oneof=user moderator admin"`
	IsSuperuser *bool   `json:"is_superuser"`
}

// UpdateProfileRequest is the self-service patch. A role field sent here
// is accepted and silently ignored.
type UpdateProfileRequest struct {
	Username  *string `json:"username" binding:"omitempty,username"`
	Email     *string `json:"email" binding:"omitempty,email,max=100"`
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role"`
}

type UserResponse struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Bio       string    `json:"bio"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type PaginatedUserResponse struct {
	Data []UserResponse `json:"data"`
	Meta PaginationMeta `json:"meta"`
}
