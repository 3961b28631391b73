package contract

import "studynotes/cmd/internal/domain/entity"

const MaxMediaFileSizeBytes = 30 * 1024 * 1024

var ValidMediaFileTypes = []string{"pdf", "png", "jpg", "jpeg", "jfif", "webp", "gif", "mp4", "mp3"}

type MediaItemResponse struct {
	Type      string `json:"type"`
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type NoteResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Content     string               `json:"content"`
	SubjectID   string               `json:"subjectId"`
	Tags        []string             `json:"tags"`
	MediaItems  []*MediaItemResponse `json:"mediaItems"`
	CreatedBy   string               `json:"createdBy"`
	CreatedAt   string               `json:"createdAt"`
	UpdatedAt   string               `json:"updatedAt"`
	IsShared    bool                 `json:"isShared"`
	ShareType   string               `json:"shareType,omitempty"`
	SharedWith  []string             `json:"sharedWith"`
	SharedBy    string               `json:"sharedBy,omitempty"`
	Permissions *entity.Permissions  `json:"permissions,omitempty"`
}

type NoteRequest struct {
	Title     string   `json:"title" validate:"required,min=1,max=200"`
	Content   string   `json:"content" validate:"required,max=1000000"`
	SubjectID string   `json:"subjectId" validate:"required"`
	Tags      []string `json:"tags" validate:"omitempty,max=50,nodupes,dive,required,min=1,max=30,nospaces"`
}

type MediaUploadRequest struct {
	Title string `json:"title" validate:"omitempty,max=120"`
}

type MediaRemoveRequest struct {
	URL string `json:"url" validate:"required"`
}
