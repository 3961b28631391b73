package entity

import (
	"studynotes/cmd/internal/domain/docstore"
)

// MediaItem is an attachment reference carried on a note.
type MediaItem struct {
	Type      string `json:"type"` // image, video, file or link
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

type Note struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	SubjectID  string      `json:"subjectId"`
	Tags       []string    `json:"tags"`
	MediaItems []MediaItem `json:"mediaItems"`
	CreatedBy  string      `json:"createdBy"`
	CreatedAt  int64       `json:"createdAt"`
	UpdatedAt  int64       `json:"updatedAt"`
	Sharing
}

func NoteFromDoc(doc *docstore.Document) (*Note, error) {
	var note Note
	if err := decodeDoc(doc, &note); err != nil {
		return nil, err
	}
	note.ID = doc.ID
	return &note, nil
}
