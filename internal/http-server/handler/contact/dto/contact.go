package dto

import "buildcheck/internal/domain"

type ContactRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ContactResponse struct {
	OK   bool                `json:"ok"`
	Item domain.ContactEntry `json:"item"`
}

type SubmissionsResponse struct {
	OK    bool                  `json:"ok"`
	Items []domain.ContactEntry `json:"items"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	OK    bool      `json:"ok"`
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
