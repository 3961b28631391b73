package contract

import "studynotes/cmd/internal/domain/entity"

type SubjectResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	CreatedBy   string              `json:"createdBy"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
	IsShared    bool                `json:"isShared"`
	ShareType   string              `json:"shareType,omitempty"`
	SharedWith  []string            `json:"sharedWith"`
	SharedBy    string              `json:"sharedBy,omitempty"`
	Permissions *entity.Permissions `json:"permissions,omitempty"`
}

type SubjectRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=120"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}
