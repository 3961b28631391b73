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

type SubjectService struct {
	Store    docstore.Store
	Access   *AccessResolver
	Policy   *policy.ItemPolicy
	Validate *validator.Validate
}

func NewSubjectService(store docstore.Store, access *AccessResolver, itemPolicy *policy.ItemPolicy, validate *validator.Validate) *SubjectService {
	return &SubjectService{
		Store:    store,
		Access:   access,
		Policy:   itemPolicy,
		Validate: validate,
	}
}

// GetSubjects lists the actor's own subjects, newest first. Sharing never
// surfaces in owner listings; shared items are reached through the share
// listing paths instead.
func (s *SubjectService) GetSubjects(ctx context.Context, actor *entity.User) ([]*contract.SubjectResponse, apierror.ErrorResponse) {
	docs, err := s.Store.Query(ctx, docstore.CollectionSubjects,
		docstore.Where("createdBy", docstore.OpEqual, actor.UID).OrderDesc("createdAt"))
	if err != nil {
		log.Errorf("failed to fetch subjects: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.SubjectResponse, 0, len(docs))
	for _, doc := range docs {
		subject, derr := entity.SubjectFromDoc(doc)
		if derr != nil {
			log.Errorf("failed to decode subject %s: %v", doc.ID, derr)
			return nil, apierror.InternalServerError
		}
		resp = append(resp, toSubjectResponse(subject))
	}
	return resp, nil
}

func (s *SubjectService) GetSubject(ctx context.Context, actor *entity.User, subjectID string) (*contract.SubjectResponse, apierror.ErrorResponse) {
	subject, apierr := s.Access.ResolveSubject(ctx, actor, subjectID)
	if apierr != nil {
		return nil, apierr
	}
	return toSubjectResponse(subject), nil
}

func (s *SubjectService) CreateSubject(ctx context.Context, actor *entity.User, req *contract.SubjectRequest) (*contract.SubjectResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	doc, err := s.Store.Create(ctx, docstore.CollectionSubjects, map[string]any{
		"title":       req.Title,
		"description": req.Description,
		"createdBy":   actor.UID,
		"createdAt":   docstore.ServerTimestamp,
		"updatedAt":   docstore.ServerTimestamp,
	})
	if err != nil {
		log.Errorf("failed to create subject: %v", err)
		return nil, apierror.InternalServerError
	}

	subject, err := entity.SubjectFromDoc(doc)
	if err != nil {
		log.Errorf("failed to decode subject %s: %v", doc.ID, err)
		return nil, apierror.InternalServerError
	}
	return toSubjectResponse(subject), nil
}

// UpdateSubject replaces the full editable field set; it is not a patch.
func (s *SubjectService) UpdateSubject(ctx context.Context, actor *entity.User, subjectID string, req *contract.SubjectRequest) (*contract.SubjectResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	subject, apierr := s.fetchOwned(ctx, actor, subjectID)
	if apierr != nil {
		return nil, apierr
	}

	err := s.Store.Update(ctx, docstore.CollectionSubjects, subject.ID, map[string]any{
		"title":       req.Title,
		"description": req.Description,
		"updatedAt":   docstore.ServerTimestamp,
	})
	if err != nil {
		log.Errorf("failed to update subject %s: %v", subjectID, err)
		return nil, apierror.InternalServerError
	}
	return s.GetSubject(ctx, actor, subjectID)
}

// DeleteSubject removes the subject, every note under it and every share
// referencing it, in a single atomic batch.
func (s *SubjectService) DeleteSubject(ctx context.Context, actor *entity.User, subjectID string) apierror.ErrorResponse {
	subject, apierr := s.fetchOwned(ctx, actor, subjectID)
	if apierr != nil {
		return apierr
	}

	notes, err := s.Store.Query(ctx, docstore.CollectionNotes,
		docstore.Where("subjectId", docstore.OpEqual, subjectID))
	if err != nil {
		log.Errorf("failed to fetch notes for subject %s: %v", subjectID, err)
		return apierror.InternalServerError
	}

	shares, err := s.Store.Query(ctx, docstore.CollectionShares,
		docstore.Where("itemId", docstore.OpEqual, subjectID).
			Where("itemType", docstore.OpEqual, entity.ItemTypeSubject))
	if err != nil {
		log.Errorf("failed to fetch shares for subject %s: %v", subjectID, err)
		return apierror.InternalServerError
	}

	batch := s.Store.Batch()
	for _, note := range notes {
		batch.Delete(docstore.CollectionNotes, note.ID)
	}
	for _, share := range shares {
		batch.Delete(docstore.CollectionShares, share.ID)
	}
	batch.Delete(docstore.CollectionSubjects, subject.ID)

	if err := batch.Commit(ctx); err != nil {
		log.Errorf("failed to delete subject %s: %v", subjectID, err)
		return apierror.InternalServerError
	}
	return nil
}

// GetSubjectNotes lists every note under a subject the actor may read,
// most recently updated first.
func (s *SubjectService) GetSubjectNotes(ctx context.Context, actor *entity.User, subjectID string) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	if _, apierr := s.Access.ResolveSubject(ctx, actor, subjectID); apierr != nil {
		return nil, apierr
	}

	docs, err := s.Store.Query(ctx, docstore.CollectionNotes,
		docstore.Where("subjectId", docstore.OpEqual, subjectID).OrderDesc("updatedAt"))
	if err != nil {
		log.Errorf("failed to fetch notes for subject %s: %v", subjectID, err)
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

// fetchOwned loads a subject and enforces ownership for mutation. NotFound
// is reported before Forbidden, deliberately and uniformly.
func (s *SubjectService) fetchOwned(ctx context.Context, actor *entity.User, subjectID string) (*entity.Subject, apierror.ErrorResponse) {
	doc, err := s.Store.Get(ctx, docstore.CollectionSubjects, subjectID)
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

	if perr := s.Policy.CanModify(subject.CreatedBy, actor); perr != nil {
		return nil, perr
	}
	return subject, nil
}

func toSubjectResponse(subject *entity.Subject) *contract.SubjectResponse {
	return &contract.SubjectResponse{
		ID:          subject.ID,
		Title:       subject.Title,
		Description: subject.Description,
		CreatedBy:   subject.CreatedBy,
		CreatedAt:   utils.FormatEpoch(subject.CreatedAt),
		UpdatedAt:   utils.FormatEpoch(subject.UpdatedAt),
		IsShared:    subject.IsShared,
		ShareType:   subject.ShareType,
		SharedWith:  emptyIfNil(subject.SharedWith),
		SharedBy:    subject.SharedBy,
		Permissions: subject.Permissions,
	}
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
