package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// --- Identity ---

// registerRequest keeps telegram_id as a pointer so a missing field is
// told apart from an explicit 0.
type registerRequest struct {
	ID          int64  `json:"id"          validate:"gte=0"`
	ExternalID  *int64 `json:"telegram_id" validate:"required,gte=0"`
	DisplayName string `json:"username"    validate:"required"`
}

// updateIdentityRequest is a sparse update. Omitted or null fields are left
// untouched.
type updateIdentityRequest struct {
	DisplayName *string `json:"username,omitempty"`
	Role        *string `json:"role,omitempty"`
}

type identityResponse struct {
	ID          int64     `json:"id"`
	ExternalID  int64     `json:"telegram_id"`
	DisplayName string    `json:"username"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Session ---

type loginRequest struct {
	DisplayName string `json:"username" validate:"required"`
}

type loginResponse struct {
	Message    string    `json:"message"`
	Channel    string    `json:"channel"`
	AcceptedAt time.Time `json:"accepted_at"`
}

type verifyRequest struct {
	Credential string `json:"code"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type snapshotResponse struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"username"`
	Role        string `json:"role"`
}

// --- Posts ---

type createPostRequest struct {
	ID       int64  `json:"id"        validate:"gte=0"`
	AuthorID int64  `json:"author_id" validate:"gte=0"`
	Title    string `json:"title"     validate:"required"`
	Content  string `json:"content"   validate:"required"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

type updatePostRequest struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	ImageURL *string `json:"image_url,omitempty" validate:"omitempty,url"`
}
