package entity

import (
	"studynotes/cmd/internal/domain/docstore"
)

type Subject struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedBy   string `json:"createdBy"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
	Sharing
}

func SubjectFromDoc(doc *docstore.Document) (*Subject, error) {
	var subject Subject
	if err := decodeDoc(doc, &subject); err != nil {
		return nil, err
	}
	subject.ID = doc.ID
	return &subject, nil
}
