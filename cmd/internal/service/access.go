package service

import (
	"context"

	"github.com/labstack/gommon/log"

	"studynotes/cmd/internal/domain/docstore"
	"studynotes/cmd/internal/domain/entity"
	"studynotes/cmd/internal/utils/apierror"
)

// AccessResolver answers "may this user read this item?" by composing the
// ownership check, the public-share check and the targeted-share check, in
// that order, short-circuiting on the first match. NotFound always wins over
// Forbidden: authenticated callers learn whether an item exists.
type AccessResolver struct {
	Store docstore.Store
}

func NewAccessResolver(store docstore.Store) *AccessResolver {
	return &AccessResolver{Store: store}
}

func (a *AccessResolver) ResolveSubject(ctx context.Context, actor *entity.User, subjectID string) (*entity.Subject, apierror.ErrorResponse) {
	doc, err := a.Store.Get(ctx, docstore.CollectionSubjects, subjectID)
	if err != nil {
		log.Errorf("failed to fetch subject %s: %v", subjectID, err)
		return nil, apierror.InternalServerError
	}

	if doc == nil {
		return nil, apierror.NotFoundError
	}

	subject, err := entity.SubjectFromDoc(doc)
	if err != nil {
		log.Errorf("failed to decode subject %s: %v", subjectID, err)
		return nil, apierror.InternalServerError
	}

	if subject.CreatedBy == actor.UID {
		return subject, nil
	}

	shared, err := a.sharedWithActor(ctx, actor, entity.ItemTypeSubject, subjectID)
	if err != nil {
		log.Errorf("failed to check shares for subject %s: %v", subjectID, err)
		return nil, apierror.InternalServerError
	}

	if !shared {
		return nil, apierror.NewForbiddenError("You don't have access to this subject")
	}
	return subject, nil
}

// ResolveNote grants access transitively through the parent subject before
// consulting the note's own share records: subject-level sharing implies
// read access to every note within it.
func (a *AccessResolver) ResolveNote(ctx context.Context, actor *entity.User, noteID string) (*entity.Note, apierror.ErrorResponse) {
	doc, err := a.Store.Get(ctx, docstore.CollectionNotes, noteID)
	if err != nil {
		log.Errorf("failed to fetch note %s: %v", noteID, err)
		return nil, apierror.InternalServerError
	}

	if doc == nil {
		return nil, apierror.NotFoundError
	}

	note, err := entity.NoteFromDoc(doc)
	if err != nil {
		log.Errorf("failed to decode note %s: %v", noteID, err)
		return nil, apierror.InternalServerError
	}

	if note.CreatedBy == actor.UID {
		return note, nil
	}

	if _, apierr := a.ResolveSubject(ctx, actor, note.SubjectID); apierr == nil {
		return note, nil
	}

	shared, err := a.sharedWithActor(ctx, actor, entity.ItemTypeNote, noteID)
	if err != nil {
		log.Errorf("failed to check shares for note %s: %v", noteID, err)
		return nil, apierror.InternalServerError
	}

	if !shared {
		return nil, apierror.NewForbiddenError("You don't have access to this note")
	}
	return note, nil
}

// ResolveItem is the kind-agnostic entry used by the sharing paths. It
// returns the owner of the item after verifying the actor may read it.
func (a *AccessResolver) ResolveItem(ctx context.Context, actor *entity.User, itemType, itemID string) (string, apierror.ErrorResponse) {
	switch itemType {
	case entity.ItemTypeSubject:
		subject, apierr := a.ResolveSubject(ctx, actor, itemID)
		if apierr != nil {
			return "", apierr
		}
		return subject.CreatedBy, nil

	case entity.ItemTypeNote:
		note, apierr := a.ResolveNote(ctx, actor, itemID)
		if apierr != nil {
			return "", apierr
		}
		return note.CreatedBy, nil

	default:
		return "", apierror.NewInvalidItemTypeError(itemType)
	}
}

// sharedWithActor consults the normalized share records: a public share
// grants anyone access, a specific share only listed emails. Recipients are
// matched by email, not uid.
func (a *AccessResolver) sharedWithActor(ctx context.Context, actor *entity.User, itemType, itemID string) (bool, error) {
	base := docstore.
		Where("itemId", docstore.OpEqual, itemID).
		Where("itemType", docstore.OpEqual, itemType)

	public, err := a.Store.Query(ctx, docstore.CollectionShares,
		base.Where("shareType", docstore.OpEqual, entity.ShareTypePublic))
	if err != nil {
		return false, err
	}

	if len(public) > 0 {
		return true, nil
	}

	specific, err := a.Store.Query(ctx, docstore.CollectionShares,
		base.Where("shareType", docstore.OpEqual, entity.ShareTypeSpecific).
			Where("sharedWith", docstore.OpArrayContains, actor.Email))
	if err != nil {
		return false, err
	}
	return len(specific) > 0, nil
}
