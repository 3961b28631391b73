package service

import (
	"context"
	"sort"
	"strings"

	"github.com/labstack/gommon/log"

	"studynotes/cmd/internal/contract"
	"studynotes/cmd/internal/domain/docstore"
	"studynotes/cmd/internal/domain/entity"
	"studynotes/cmd/internal/domain/policy"
	"studynotes/cmd/internal/utils/apierror"
)

// TagService is the derived tag view over a user's notes.
type TagService struct {
	Store  docstore.Store
	Access *AccessResolver
	Policy *policy.ItemPolicy
}

func NewTagService(store docstore.Store, access *AccessResolver, itemPolicy *policy.ItemPolicy) *TagService {
	return &TagService{
		Store:  store,
		Access: access,
		Policy: itemPolicy,
	}
}

// GetTags returns the sorted set of distinct tags across the actor's notes.
func (t *TagService) GetTags(ctx context.Context, actor *entity.User) ([]string, apierror.ErrorResponse) {
	docs, err := t.Store.Query(ctx, docstore.CollectionNotes,
		docstore.Where("createdBy", docstore.OpEqual, actor.UID))
	if err != nil {
		log.Errorf("failed to fetch notes for tags: %v", err)
		return nil, apierror.InternalServerError
	}

	set := map[string]bool{}
	for _, doc := range docs {
		note, derr := entity.NoteFromDoc(doc)
		if derr != nil {
			log.Errorf("failed to decode note %s: %v", doc.ID, derr)
			return nil, apierror.InternalServerError
		}
		for _, tag := range note.Tags {
			set[tag] = true
		}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func (t *TagService) GetNotesByTag(ctx context.Context, actor *entity.User, tag string) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	docs, err := t.Store.Query(ctx, docstore.CollectionNotes,
		docstore.Where("createdBy", docstore.OpEqual, actor.UID).
			Where("tags", docstore.OpArrayContains, tag))
	if err != nil {
		log.Errorf("failed to fetch notes by tag %s: %v", tag, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.NoteResponse, 0, len(docs))
	for _, doc := range docs {
		note, derr := entity.NoteFromDoc(doc)
		if derr != nil {
			log.Errorf("failed to decode note %s: %v", doc.ID, derr)
			return nil, apierror.InternalServerError
		}
		resp = append(resp, toNoteResponse(note))
	}
	return resp, nil
}

// AddTag is an idempotent set insert: tagging twice leaves one instance.
// Read access via sharing is not enough; only the owner may tag.
func (t *TagService) AddTag(ctx context.Context, actor *entity.User, noteID, tag string) apierror.ErrorResponse {
	tag, apierr := t.resolveTagged(ctx, actor, noteID, tag)
	if apierr != nil {
		return apierr
	}

	err := t.Store.Update(ctx, docstore.CollectionNotes, noteID, map[string]any{
		"tags": docstore.ArrayUnion(tag),
	})
	if err != nil {
		log.Errorf("failed to add tag %s to note %s: %v", tag, noteID, err)
		return apierror.InternalServerError
	}
	return nil
}

// RemoveTag on an absent tag is a no-op returning success.
func (t *TagService) RemoveTag(ctx context.Context, actor *entity.User, noteID, tag string) apierror.ErrorResponse {
	tag, apierr := t.resolveTagged(ctx, actor, noteID, tag)
	if apierr != nil {
		return apierr
	}

	err := t.Store.Update(ctx, docstore.CollectionNotes, noteID, map[string]any{
		"tags": docstore.ArrayRemove(tag),
	})
	if err != nil {
		log.Errorf("failed to remove tag %s from note %s: %v", tag, noteID, err)
		return apierror.InternalServerError
	}
	return nil
}

func (t *TagService) resolveTagged(ctx context.Context, actor *entity.User, noteID, tag string) (string, apierror.ErrorResponse) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", apierror.NewSimple(400, "Tag cannot be empty")
	}

	note, apierr := t.Access.ResolveNote(ctx, actor, noteID)
	if apierr != nil {
		return "", apierr
	}

	if perr := t.Policy.CanTag(note.CreatedBy, actor); perr != nil {
		return "", perr
	}
	return tag, nil
}
