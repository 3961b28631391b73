package service

import (
	"context"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"studynotes/cmd/internal/contract"
	"studynotes/cmd/internal/domain/docstore"
	"studynotes/cmd/internal/domain/entity"
	"studynotes/cmd/internal/domain/policy"
	"studynotes/cmd/internal/infrastructure/aws/storage"
	"studynotes/cmd/internal/utils"
	"studynotes/cmd/internal/utils/apierror"
)

const DefaultRecentNotesLimit = 10

type NoteService struct {
	Store    docstore.Store
	Access   *AccessResolver
	Policy   *policy.ItemPolicy
	S3       storage.S3Client
	Validate *validator.Validate
}

func NewNoteService(store docstore.Store, access *AccessResolver, itemPolicy *policy.ItemPolicy, s3 storage.S3Client, validate *validator.Validate) *NoteService {
	return &NoteService{
		Store:    store,
		Access:   access,
		Policy:   itemPolicy,
		S3:       s3,
		Validate: validate,
	}
}

// GetRecentNotes lists the actor's own notes across all subjects, most
// recently updated first.
func (n *NoteService) GetRecentNotes(ctx context.Context, actor *entity.User, limit int) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	if limit <= 0 {
		limit = DefaultRecentNotesLimit
	}

	docs, err := n.Store.Query(ctx, docstore.CollectionNotes,
		docstore.Where("createdBy", docstore.OpEqual, actor.UID).
			OrderDesc("updatedAt").
			WithLimit(limit))
	if err != nil {
		log.Errorf("failed to fetch recent notes: %v", err)
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

func (n *NoteService) GetNote(ctx context.Context, actor *entity.User, noteID string) (*contract.NoteResponse, apierror.ErrorResponse) {
	note, apierr := n.Access.ResolveNote(ctx, actor, noteID)
	if apierr != nil {
		return nil, apierr
	}
	return toNoteResponse(note), nil
}

// CreateNote creates a note under a subject the actor can read. A note
// cannot be created under a subject its author cannot see.
func (n *NoteService) CreateNote(ctx context.Context, actor *entity.User, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := n.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	if _, apierr := n.Access.ResolveSubject(ctx, actor, req.SubjectID); apierr != nil {
		return nil, apierr
	}

	doc, err := n.Store.Create(ctx, docstore.CollectionNotes, map[string]any{
		"title":      req.Title,
		"content":    req.Content,
		"subjectId":  req.SubjectID,
		"tags":       tagsOrEmpty(req.Tags),
		"mediaItems": []any{},
		"createdBy":  actor.UID,
		"createdAt":  docstore.ServerTimestamp,
		"updatedAt":  docstore.ServerTimestamp,
		"isShared":   false,
	})
	if err != nil {
		log.Errorf("failed to create note: %v", err)
		return nil, apierror.InternalServerError
	}

	note, err := entity.NoteFromDoc(doc)
	if err != nil {
		log.Errorf("failed to decode note %s: %v", doc.ID, err)
		return nil, apierror.InternalServerError
	}
	return toNoteResponse(note), nil
}

// UpdateNote replaces the full editable field set. Subject reassignment is
// allowed only to another subject the actor can read.
func (n *NoteService) UpdateNote(ctx context.Context, actor *entity.User, noteID string, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := n.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	note, apierr := n.fetchOwned(ctx, actor, noteID)
	if apierr != nil {
		return nil, apierr
	}

	if _, apierr := n.Access.ResolveSubject(ctx, actor, req.SubjectID); apierr != nil {
		return nil, apierr
	}

	err := n.Store.Update(ctx, docstore.CollectionNotes, note.ID, map[string]any{
		"title":     req.Title,
		"content":   req.Content,
		"subjectId": req.SubjectID,
		"tags":      tagsOrEmpty(req.Tags),
		"updatedAt": docstore.ServerTimestamp,
	})
	if err != nil {
		log.Errorf("failed to update note %s: %v", noteID, err)
		return nil, apierror.InternalServerError
	}
	return n.GetNote(ctx, actor, noteID)
}

// DeleteNote removes the note and every share referencing it in one atomic
// batch, then best-effort cleans up uploaded media.
func (n *NoteService) DeleteNote(ctx context.Context, actor *entity.User, noteID string) apierror.ErrorResponse {
	note, apierr := n.fetchOwned(ctx, actor, noteID)
	if apierr != nil {
		return apierr
	}

	shares, err := n.Store.Query(ctx, docstore.CollectionShares,
		docstore.Where("itemId", docstore.OpEqual, noteID).
			Where("itemType", docstore.OpEqual, entity.ItemTypeNote))
	if err != nil {
		log.Errorf("failed to fetch shares for note %s: %v", noteID, err)
		return apierror.InternalServerError
	}

	batch := n.Store.Batch()
	for _, share := range shares {
		batch.Delete(docstore.CollectionShares, share.ID)
	}
	batch.Delete(docstore.CollectionNotes, note.ID)

	if err := batch.Commit(ctx); err != nil {
		log.Errorf("failed to delete note %s: %v", noteID, err)
		return apierror.InternalServerError
	}

	// The note is gone either way; a leaked object is not worth a 500.
	for _, item := range note.MediaItems {
		if derr := n.S3.DeleteFile(item.URL); derr != nil {
			log.Warnf("failed to delete media object %s: %v", item.URL, derr)
		}
	}
	return nil
}

// AddMedia uploads an attachment and appends it to the note's media list.
func (n *NoteService) AddMedia(ctx context.Context, actor *entity.User, noteID string, req *contract.MediaUploadRequest, fileHeader *multipart.FileHeader) (*contract.NoteResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := n.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	note, apierr := n.fetchOwned(ctx, actor, noteID)
	if apierr != nil {
		return nil, apierr
	}

	if apierr := checkMediaFile(fileHeader); apierr != nil {
		return nil, apierr
	}

	key, apierr := handleMediaUpload(n.S3, fileHeader)
	if apierr != nil {
		return nil, apierr
	}

	item := map[string]any{
		"type":      mediaTypeOf(fileHeader.Filename),
		"url":       key,
		"title":     req.Title,
		"createdAt": utils.NowUTC(),
	}

	err := n.Store.Update(ctx, docstore.CollectionNotes, note.ID, map[string]any{
		"mediaItems": docstore.ArrayUnion(item),
		"updatedAt":  docstore.ServerTimestamp,
	})
	if err != nil {
		log.Errorf("failed to attach media to note %s: %v", noteID, err)
		return nil, apierror.InternalServerError
	}
	return n.GetNote(ctx, actor, noteID)
}

// RemoveMedia detaches a media item by url. Removing an absent url is a
// no-op returning the current note.
func (n *NoteService) RemoveMedia(ctx context.Context, actor *entity.User, noteID string, req *contract.MediaRemoveRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := n.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	note, apierr := n.fetchOwned(ctx, actor, noteID)
	if apierr != nil {
		return nil, apierr
	}

	var found *entity.MediaItem
	for i := range note.MediaItems {
		if note.MediaItems[i].URL == req.URL {
			found = &note.MediaItems[i]
			break
		}
	}

	if found == nil {
		return toNoteResponse(note), nil
	}

	if derr := n.S3.DeleteFile(found.URL); derr != nil {
		log.Warnf("failed to delete media object %s: %v", found.URL, derr)
	}

	err := n.Store.Update(ctx, docstore.CollectionNotes, note.ID, map[string]any{
		"mediaItems": docstore.ArrayRemove(map[string]any{
			"type":      found.Type,
			"url":       found.URL,
			"title":     found.Title,
			"createdAt": found.CreatedAt,
		}),
		"updatedAt": docstore.ServerTimestamp,
	})
	if err != nil {
		log.Errorf("failed to detach media from note %s: %v", noteID, err)
		return nil, apierror.InternalServerError
	}
	return n.GetNote(ctx, actor, noteID)
}

func (n *NoteService) fetchOwned(ctx context.Context, actor *entity.User, noteID string) (*entity.Note, apierror.ErrorResponse) {
	doc, err := n.Store.Get(ctx, docstore.CollectionNotes, noteID)
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

	if perr := n.Policy.CanModify(note.CreatedBy, actor); perr != nil {
		return nil, perr
	}
	return note, nil
}

// handleMediaUpload pushes the file to S3 under a fresh UUID object name
// and returns the stored key.
func handleMediaUpload(s3 storage.S3Client, fileHeader *multipart.FileHeader) (string, apierror.ErrorResponse) {
	ext := filepath.Ext(fileHeader.Filename)
	data, apierr := readMediaFile(fileHeader)
	if apierr != nil {
		return "", apierr
	}

	filename := uuid.NewString() + ext
	key, err := s3.UploadFile(data, filename)
	if err != nil {
		log.Errorf("failed to upload file: %v", err)
		return "", apierror.InternalServerError
	}
	return key, nil
}

func checkMediaFile(fileHeader *multipart.FileHeader) apierror.ErrorResponse {
	if fileHeader.Size > contract.MaxMediaFileSizeBytes {
		return apierror.NewSimple(400, "Media file exceeds the %d byte limit", contract.MaxMediaFileSizeBytes)
	}

	if strings.TrimSpace(fileHeader.Filename) == "" {
		return apierror.NewSimple(400, "Media file name is missing")
	}

	if ext, ok := utils.CheckFileExt(fileHeader.Filename, contract.ValidMediaFileTypes); !ok {
		return apierror.NewSimple(400, "Invalid media file extension: %s", ext)
	}
	return nil
}

func readMediaFile(fileHeader *multipart.FileHeader) ([]byte, apierror.ErrorResponse) {
	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("failed to open file: %v", err)
		return nil, apierror.InternalServerError
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Errorf("failed to read file: %v", err)
		return nil, apierror.InternalServerError
	}
	return data, nil
}

func mediaTypeOf(filename string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "png", "jpg", "jpeg", "jfif", "webp", "gif":
		return "image"
	case "mp4":
		return "video"
	default:
		return "file"
	}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func toNoteResponse(note *entity.Note) *contract.NoteResponse {
	media := make([]*contract.MediaItemResponse, 0, len(note.MediaItems))
	for _, item := range note.MediaItems {
		resp := &contract.MediaItemResponse{
			Type:  item.Type,
			URL:   item.URL,
			Title: item.Title,
		}
		if item.CreatedAt > 0 {
			resp.CreatedAt = utils.FormatEpoch(item.CreatedAt)
		}
		media = append(media, resp)
	}

	return &contract.NoteResponse{
		ID:          note.ID,
		Title:       note.Title,
		Content:     note.Content,
		SubjectID:   note.SubjectID,
		Tags:        emptyIfNil(note.Tags),
		MediaItems:  media,
		CreatedBy:   note.CreatedBy,
		CreatedAt:   utils.FormatEpoch(note.CreatedAt),
		UpdatedAt:   utils.FormatEpoch(note.UpdatedAt),
		IsShared:    note.IsShared,
		ShareType:   note.ShareType,
		SharedWith:  emptyIfNil(note.SharedWith),
		SharedBy:    note.SharedBy,
		Permissions: note.Permissions,
	}
}
