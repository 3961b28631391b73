package contract

import "studynotes/cmd/internal/domain/entity"

type ShareRequest struct {
	ItemID      string              `json:"itemId" validate:"required"`
	ItemType    string              `json:"itemType" validate:"required,oneof=subject note"`
	ShareType   string              `json:"shareType" validate:"required,oneof=private specific public"`
	SharedWith  []string            `json:"sharedWith" validate:"omitempty,max=100,nodupes,dive,required,email"`
	Message     string              `json:"message" validate:"omitempty,max=500"`
	Permissions *entity.Permissions `json:"permissions"`
}

// ShareResponse serves both the normalized share records and the views
// reconstructed from item projections in the with-me/by-me listings.
type ShareResponse struct {
	ID          string              `json:"id"`
	ItemID      string              `json:"itemId"`
	ItemType    string              `json:"itemType"`
	ShareType   string              `json:"shareType"`
	SharedWith  []string            `json:"sharedWith"`
	SharedBy    string              `json:"sharedBy"`
	Message     string              `json:"message,omitempty"`
	Permissions *entity.Permissions `json:"permissions"`
	SharedAt    string              `json:"sharedAt"`
	UpdatedAt   string              `json:"updatedAt,omitempty"`
}
