package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"

	"studynotes/cmd/internal/contract"
	"studynotes/cmd/internal/domain/docstore"
	"studynotes/cmd/internal/domain/entity"
	"studynotes/cmd/internal/domain/policy"
	"studynotes/cmd/internal/utils"
	"studynotes/cmd/internal/utils/apierror"
)

// ShareService keeps the normalized share records and the denormalized item
// projections consistent. Every mutation commits the share write and the
// projection write in one atomic batch, so the two representations cannot
// diverge mid-request.
type ShareService struct {
	Store    docstore.Store
	Access   *AccessResolver
	Policy   *policy.ItemPolicy
	Validate *validator.Validate
}

func NewShareService(store docstore.Store, access *AccessResolver, itemPolicy *policy.ItemPolicy, validate *validator.Validate) *ShareService {
	return &ShareService{
		Store:    store,
		Access:   access,
		Policy:   itemPolicy,
		Validate: validate,
	}
}

// ShareItem creates or updates the actor's share of an item. Re-sharing by
// the same owner updates the existing record keyed by (itemId, itemType,
// sharedBy) rather than creating a duplicate; on a racy duplicate the first
// match wins.
func (s *ShareService) ShareItem(ctx context.Context, actor *entity.User, req *contract.ShareRequest) (*contract.ShareResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	owner, apierr := s.Access.ResolveItem(ctx, actor, req.ItemType, req.ItemID)
	if apierr != nil {
		return nil, apierr
	}

	if perr := s.Policy.CanShare(owner, actor); perr != nil {
		return nil, perr
	}

	existing, err := s.Store.Query(ctx, docstore.CollectionShares,
		docstore.Where("itemId", docstore.OpEqual, req.ItemID).
			Where("itemType", docstore.OpEqual, req.ItemType).
			Where("sharedBy", docstore.OpEqual, actor.UID))
	if err != nil {
		log.Errorf("failed to fetch existing shares for %s %s: %v", req.ItemType, req.ItemID, err)
		return nil, apierror.InternalServerError
	}

	perms := req.Permissions
	if perms == nil {
		perms = entity.DefaultPermissions()
	}
	sharedWith := emptyIfNil(req.SharedWith)

	shareFields := map[string]any{
		"shareType":   req.ShareType,
		"sharedWith":  sharedWith,
		"message":     req.Message,
		"permissions": perms,
		"sharedBy":    actor.UID,
		"updatedAt":   docstore.ServerTimestamp,
	}

	var shareID string
	batch := s.Store.Batch()
	batch.Update(collectionFor(req.ItemType), req.ItemID, map[string]any{
		"isShared":    true,
		"shareType":   req.ShareType,
		"sharedWith":  sharedWith,
		"sharedBy":    actor.UID,
		"permissions": perms,
		"updatedAt":   docstore.ServerTimestamp,
	})

	if len(existing) > 0 {
		shareID = existing[0].ID
		batch.Update(docstore.CollectionShares, shareID, shareFields)
	} else {
		shareID = docstore.NewID()
		shareFields["itemId"] = req.ItemID
		shareFields["itemType"] = req.ItemType
		shareFields["sharedAt"] = docstore.ServerTimestamp
		batch.Set(docstore.CollectionShares, shareID, shareFields)
	}

	if err := batch.Commit(ctx); err != nil {
		log.Errorf("failed to share %s %s: %v", req.ItemType, req.ItemID, err)
		return nil, apierror.InternalServerError
	}

	doc, err := s.Store.Get(ctx, docstore.CollectionShares, shareID)
	if err != nil || doc == nil {
		log.Errorf("failed to fetch share %s after write: %v", shareID, err)
		return nil, apierror.InternalServerError
	}

	share, err := entity.ShareFromDoc(doc)
	if err != nil {
		log.Errorf("failed to decode share %s: %v", shareID, err)
		return nil, apierror.InternalServerError
	}
	return toShareResponse(share), nil
}

// RemoveShare deletes a share record. When the last share on an item goes
// away, the item's projection reverts to private in the same batch.
func (s *ShareService) RemoveShare(ctx context.Context, actor *entity.User, shareID string) apierror.ErrorResponse {
	doc, err := s.Store.Get(ctx, docstore.CollectionShares, shareID)
	if err != nil {
		log.Errorf("failed to fetch share %s: %v", shareID, err)
		return apierror.InternalServerError
	}

	if doc == nil {
		return apierror.NotFoundError
	}

	share, err := entity.ShareFromDoc(doc)
	if err != nil {
		log.Errorf("failed to decode share %s: %v", shareID, err)
		return apierror.InternalServerError
	}

	if perr := s.Policy.CanUnshare(share.SharedBy, actor); perr != nil {
		return perr
	}

	remaining, err := s.Store.Query(ctx, docstore.CollectionShares,
		docstore.Where("itemId", docstore.OpEqual, share.ItemID).
			Where("itemType", docstore.OpEqual, share.ItemType))
	if err != nil {
		log.Errorf("failed to count shares for %s %s: %v", share.ItemType, share.ItemID, err)
		return apierror.InternalServerError
	}

	others := 0
	for _, rec := range remaining {
		if rec.ID != shareID {
			others++
		}
	}

	batch := s.Store.Batch()
	batch.Delete(docstore.CollectionShares, shareID)

	if others == 0 {
		item, gerr := s.Store.Get(ctx, collectionFor(share.ItemType), share.ItemID)
		if gerr != nil {
			log.Errorf("failed to fetch %s %s: %v", share.ItemType, share.ItemID, gerr)
			return apierror.InternalServerError
		}

		// The item may already be gone; the cascade owns that case.
		if item != nil {
			batch.Update(collectionFor(share.ItemType), share.ItemID, map[string]any{
				"isShared":   false,
				"shareType":  nil,
				"sharedWith": []string{},
				"sharedBy":   entity.SharedByUnknown,
			})
		}
	}

	if err := batch.Commit(ctx); err != nil {
		log.Errorf("failed to remove share %s: %v", shareID, err)
		return apierror.InternalServerError
	}
	return nil
}

// SharedWithMe reconstructs the shared-with-me view from the denormalized
// item projections, so it reflects current item state even if a share
// record is stale. Direct shares are collected first; public items are
// merged in afterwards, de-duplicated by (itemId, itemType).
func (s *ShareService) SharedWithMe(ctx context.Context, actor *entity.User) ([]*contract.ShareResponse, apierror.ErrorResponse) {
	var out []*contract.ShareResponse
	seen := map[string]bool{}

	appendView := func(view *contract.ShareResponse) {
		key := view.ItemType + "/" + view.ItemID
		if !seen[key] {
			seen[key] = true
			out = append(out, view)
		}
	}

	directSubjects, err := s.Store.Query(ctx, docstore.CollectionSubjects,
		docstore.Where("sharedWith", docstore.OpArrayContains, actor.Email))
	if err != nil {
		log.Errorf("failed to fetch subjects shared with %s: %v", actor.Email, err)
		return nil, apierror.InternalServerError
	}
	for _, doc := range directSubjects {
		subject, derr := entity.SubjectFromDoc(doc)
		if derr != nil {
			log.Errorf("failed to decode subject %s: %v", doc.ID, derr)
			return nil, apierror.InternalServerError
		}
		appendView(subjectShareView(subject))
	}

	directNotes, err := s.Store.Query(ctx, docstore.CollectionNotes,
		docstore.Where("sharedWith", docstore.OpArrayContains, actor.Email))
	if err != nil {
		log.Errorf("failed to fetch notes shared with %s: %v", actor.Email, err)
		return nil, apierror.InternalServerError
	}
	for _, doc := range directNotes {
		note, derr := entity.NoteFromDoc(doc)
		if derr != nil {
			log.Errorf("failed to decode note %s: %v", doc.ID, derr)
			return nil, apierror.InternalServerError
		}
		appendView(noteShareView(note))
	}

	publicSubjects, err := s.Store.Query(ctx, docstore.CollectionSubjects,
		docstore.Where("shareType", docstore.OpEqual, entity.ShareTypePublic))
	if err != nil {
		log.Errorf("failed to fetch public subjects: %v", err)
		return nil, apierror.InternalServerError
	}
	for _, doc := range publicSubjects {
		subject, derr := entity.SubjectFromDoc(doc)
		if derr != nil {
			log.Errorf("failed to decode subject %s: %v", doc.ID, derr)
			return nil, apierror.InternalServerError
		}
		if subject.CreatedBy == actor.UID {
			continue
		}
		appendView(subjectShareView(subject))
	}

	publicNotes, err := s.Store.Query(ctx, docstore.CollectionNotes,
		docstore.Where("shareType", docstore.OpEqual, entity.ShareTypePublic))
	if err != nil {
		log.Errorf("failed to fetch public notes: %v", err)
		return nil, apierror.InternalServerError
	}
	for _, doc := range publicNotes {
		note, derr := entity.NoteFromDoc(doc)
		if derr != nil {
			log.Errorf("failed to decode note %s: %v", doc.ID, derr)
			return nil, apierror.InternalServerError
		}
		if note.CreatedBy == actor.UID {
			continue
		}
		appendView(noteShareView(note))
	}

	if out == nil {
		out = []*contract.ShareResponse{}
	}
	return out, nil
}

// SharedByMe lists the actor's own items whose projection marks them as
// shared with anyone (public, or a non-empty recipient list).
func (s *ShareService) SharedByMe(ctx context.Context, actor *entity.User) ([]*contract.ShareResponse, apierror.ErrorResponse) {
	out := []*contract.ShareResponse{}

	subjects, err := s.Store.Query(ctx, docstore.CollectionSubjects,
		docstore.Where("createdBy", docstore.OpEqual, actor.UID))
	if err != nil {
		log.Errorf("failed to fetch subjects for %s: %v", actor.UID, err)
		return nil, apierror.InternalServerError
	}
	for _, doc := range subjects {
		subject, derr := entity.SubjectFromDoc(doc)
		if derr != nil {
			log.Errorf("failed to decode subject %s: %v", doc.ID, derr)
			return nil, apierror.InternalServerError
		}
		if subject.Visible() {
			out = append(out, subjectShareView(subject))
		}
	}

	notes, err := s.Store.Query(ctx, docstore.CollectionNotes,
		docstore.Where("createdBy", docstore.OpEqual, actor.UID))
	if err != nil {
		log.Errorf("failed to fetch notes for %s: %v", actor.UID, err)
		return nil, apierror.InternalServerError
	}
	for _, doc := range notes {
		note, derr := entity.NoteFromDoc(doc)
		if derr != nil {
			log.Errorf("failed to decode note %s: %v", doc.ID, derr)
			return nil, apierror.InternalServerError
		}
		if note.Visible() {
			out = append(out, noteShareView(note))
		}
	}
	return out, nil
}

// SharesForItem returns the normalized share records for one item. Unlike
// the listing views this reads the share collection itself.
func (s *ShareService) SharesForItem(ctx context.Context, actor *entity.User, itemType, itemID string) ([]*contract.ShareResponse, apierror.ErrorResponse) {
	if _, apierr := s.Access.ResolveItem(ctx, actor, itemType, itemID); apierr != nil {
		return nil, apierr
	}

	docs, err := s.Store.Query(ctx, docstore.CollectionShares,
		docstore.Where("itemId", docstore.OpEqual, itemID).
			Where("itemType", docstore.OpEqual, itemType))
	if err != nil {
		log.Errorf("failed to fetch shares for %s %s: %v", itemType, itemID, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.ShareResponse, 0, len(docs))
	for _, doc := range docs {
		share, derr := entity.ShareFromDoc(doc)
		if derr != nil {
			log.Errorf("failed to decode share %s: %v", doc.ID, derr)
			return nil, apierror.InternalServerError
		}
		resp = append(resp, toShareResponse(share))
	}
	return resp, nil
}

func collectionFor(itemType string) string {
	if itemType == entity.ItemTypeSubject {
		return docstore.CollectionSubjects
	}
	return docstore.CollectionNotes
}

func toShareResponse(share *entity.Share) *contract.ShareResponse {
	resp := &contract.ShareResponse{
		ID:          share.ID,
		ItemID:      share.ItemID,
		ItemType:    share.ItemType,
		ShareType:   share.ShareType,
		SharedWith:  emptyIfNil(share.SharedWith),
		SharedBy:    share.SharedBy,
		Message:     share.Message,
		Permissions: share.Permissions,
		SharedAt:    utils.FormatEpoch(share.SharedAt),
	}
	if share.UpdatedAt > 0 {
		resp.UpdatedAt = utils.FormatEpoch(share.UpdatedAt)
	}
	if resp.Permissions == nil {
		resp.Permissions = entity.DefaultPermissions()
	}
	return resp
}

func subjectShareView(subject *entity.Subject) *contract.ShareResponse {
	return projectionView(subject.ID, entity.ItemTypeSubject, &subject.Sharing,
		subject.CreatedBy, subject.CreatedAt, subject.UpdatedAt)
}

func noteShareView(note *entity.Note) *contract.ShareResponse {
	return projectionView(note.ID, entity.ItemTypeNote, &note.Sharing,
		note.CreatedBy, note.CreatedAt, note.UpdatedAt)
}

// projectionView rebuilds a share view from an item's denormalized fields.
func projectionView(itemID, itemType string, sharing *entity.Sharing, createdBy string, createdAt, updatedAt int64) *contract.ShareResponse {
	shareType := sharing.ShareType
	if shareType == entity.ShareTypeUnset {
		shareType = entity.ShareTypeSpecific
	}

	sharedBy := sharing.SharedBy
	if sharedBy == "" {
		sharedBy = createdBy
	}
	if sharedBy == "" {
		sharedBy = entity.SharedByUnknown
	}

	sharedAt := updatedAt
	if sharedAt == 0 {
		sharedAt = createdAt
	}

	return &contract.ShareResponse{
		ID:          itemID,
		ItemID:      itemID,
		ItemType:    itemType,
		ShareType:   shareType,
		SharedWith:  emptyIfNil(sharing.SharedWith),
		SharedBy:    sharedBy,
		Permissions: sharing.EffectivePermissions(),
		SharedAt:    utils.FormatEpoch(sharedAt),
	}
}
