package dto

// CreateContactRequest contains a new department contact.
type CreateContactRequest struct {
	Name       string `json:"name" validate:"required"`
	Department string `json:"department" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone"`
}

// UpdateContactRequest carries partial updates to a contact.
type UpdateContactRequest struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone"`
}
