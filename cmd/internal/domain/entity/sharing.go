package entity

// Item kinds that can be shared.
const (
	ItemTypeSubject = "subject"
	ItemTypeNote    = "note"
)

// Share visibility levels. The zero value means the item was never shared
// (or its last share was removed).
const (
	ShareTypeUnset    = ""
	ShareTypePrivate  = "private"
	ShareTypeSpecific = "specific"
	ShareTypePublic   = "public"
)

// SharedByUnknown is written to the projection when sharing is reverted.
const SharedByUnknown = "Unknown"

func ValidItemType(itemType string) bool {
	return itemType == ItemTypeSubject || itemType == ItemTypeNote
}

func ValidShareType(shareType string) bool {
	switch shareType {
	case ShareTypePrivate, ShareTypeSpecific, ShareTypePublic:
		return true
	}
	return false
}

// Permissions are the boolean flags carried alongside a share. They are
// stored as-is and not enforced beyond read access.
type Permissions struct {
	View     bool `json:"view"`
	Edit     bool `json:"edit"`
	Comment  bool `json:"comment"`
	Download bool `json:"download"`
	Share    bool `json:"share"`
}

// DefaultPermissions mirrors what recipients get when the owner never
// picked anything: view and download only.
func DefaultPermissions() *Permissions {
	return &Permissions{View: true, Download: true}
}

// Sharing is the denormalized projection cached on an item. It is derived
// from the item's share records and rewritten whenever they change.
type Sharing struct {
	IsShared    bool         `json:"isShared"`
	ShareType   string       `json:"shareType"`
	SharedWith  []string     `json:"sharedWith"`
	SharedBy    string       `json:"sharedBy"`
	Permissions *Permissions `json:"permissions"`
}

// EffectivePermissions returns the stored flags, or the defaults when the
// document predates permission tracking.
func (s *Sharing) EffectivePermissions() *Permissions {
	if s.Permissions == nil {
		return DefaultPermissions()
	}
	return s.Permissions
}

// Visible reports whether the projection marks the item as shared with
// anyone at all.
func (s *Sharing) Visible() bool {
	return s.ShareType == ShareTypePublic || len(s.SharedWith) > 0
}
