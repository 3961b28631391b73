package entity

import (
	"encoding/json"

	"studynotes/cmd/internal/domain/docstore"
)

// Share is the normalized record: who shared what, with whom, and under
// what permissions. At most one exists per (itemId, itemType, sharedBy).
type Share struct {
	ID          string       `json:"id"`
	ItemID      string       `json:"itemId"`
	ItemType    string       `json:"itemType"`
	ShareType   string       `json:"shareType"`
	SharedWith  []string     `json:"sharedWith"`
	SharedBy    string       `json:"sharedBy"`
	Message     string       `json:"message,omitempty"`
	Permissions *Permissions `json:"permissions"`
	SharedAt    int64        `json:"sharedAt"`
	UpdatedAt   int64        `json:"updatedAt"`
}

func ShareFromDoc(doc *docstore.Document) (*Share, error) {
	var share Share
	if err := decodeDoc(doc, &share); err != nil {
		return nil, err
	}
	share.ID = doc.ID
	return &share, nil
}

// decodeDoc maps a raw document payload onto a typed entity through its
// JSON tags, which match the stored field names.
func decodeDoc(doc *docstore.Document, out any) error {
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
