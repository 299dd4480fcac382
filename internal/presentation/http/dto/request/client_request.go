package request

import "github.com/sangkips/fieldops-api/internal/application/service"

// CreateClientRequest is the body of POST /clients
type CreateClientRequest struct {
	Name          string  `json:"name" binding:"required"`
	TaxID         string  `json:"tax_id" binding:"required"`
	BusinessName  string  `json:"business_name" binding:"required"`
	Address       string  `json:"address" binding:"required"`
	Email         *string `json:"email" binding:"omitempty,email"`
	Phone         *string `json:"phone"`
	ContactPerson *string `json:"contact_person"`
}

// ToInput converts the request into service input
func (r *CreateClientRequest) ToInput() *service.CreateClientInput {
	return &service.CreateClientInput{
		Name:          r.Name,
		TaxID:         r.TaxID,
		BusinessName:  r.BusinessName,
		Address:       r.Address,
		Email:         r.Email,
		Phone:         r.Phone,
		ContactPerson: r.ContactPerson,
	}
}
