package handler

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"studynotes/cmd/internal/contract"
	"studynotes/cmd/internal/domain/entity"
	"studynotes/cmd/internal/utils"
	"studynotes/cmd/internal/utils/apierror"
)

type NoteService interface {
	GetRecentNotes(ctx context.Context, actor *entity.User, limit int) ([]*contract.NoteResponse, apierror.ErrorResponse)
	GetNote(ctx context.Context, actor *entity.User, noteID string) (*contract.NoteResponse, apierror.ErrorResponse)
	CreateNote(ctx context.Context, actor *entity.User, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	UpdateNote(ctx context.Context, actor *entity.User, noteID string, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	DeleteNote(ctx context.Context, actor *entity.User, noteID string) apierror.ErrorResponse
	AddMedia(ctx context.Context, actor *entity.User, noteID string, req *contract.MediaUploadRequest, fileHeader *multipart.FileHeader) (*contract.NoteResponse, apierror.ErrorResponse)
	RemoveMedia(ctx context.Context, actor *entity.User, noteID string, req *contract.MediaRemoveRequest) (*contract.NoteResponse, apierror.ErrorResponse)
}

type DefaultNoteRoute struct {
	NoteService NoteService
}

func NewNoteDefault(noteService NoteService) *DefaultNoteRoute {
	return &DefaultNoteRoute{NoteService: noteService}
}

func (n *DefaultNoteRoute) GetRecentNotes(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	limit := 0
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("limit", "int"))
		}
		limit = parsed
	}

	notes, apierr := n.NoteService.GetRecentNotes(c.Request().Context(), user, limit)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"notes": notes}
	return c.JSON(http.StatusOK, &resp)
}

func (n *DefaultNoteRoute) GetNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	noteId := strings.TrimSpace(c.Param("id"))
	if noteId == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	note, apierr := n.NoteService.GetNote(c.Request().Context(), user, noteId)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) CreateNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.NoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	note, apierr := n.NoteService.CreateNote(c.Request().Context(), user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, note)
}

func (n *DefaultNoteRoute) UpdateNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	noteId := strings.TrimSpace(c.Param("id"))
	if noteId == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	var req contract.NoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	note, apierr := n.NoteService.UpdateNote(c.Request().Context(), user, noteId, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) DeleteNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	noteId := strings.TrimSpace(c.Param("id"))
	if noteId == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	if apierr := n.NoteService.DeleteNote(c.Request().Context(), user, noteId); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

// AddMedia expects a multipart form with a "json_payload" field describing
// the media item and a "content" field carrying the file itself.
func (n *DefaultNoteRoute) AddMedia(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	noteId := strings.TrimSpace(c.Param("id"))
	if noteId == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return c.JSON(http.StatusUnsupportedMediaType, apierror.InvalidMediaTypeError)
	}

	jsonPayload := strings.TrimSpace(c.FormValue("json_payload"))
	if jsonPayload == "" {
		return c.JSON(http.StatusBadRequest, apierror.FormJSONRequiredError)
	}

	var req contract.MediaUploadRequest
	if err := json.Unmarshal([]byte(jsonPayload), &req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	fileHeader, err := c.FormFile("content")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MissingMediaFileError)
	}

	note, apierr := n.NoteService.AddMedia(c.Request().Context(), user, noteId, &req, fileHeader)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, note)
}

func (n *DefaultNoteRoute) RemoveMedia(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	noteId := strings.TrimSpace(c.Param("id"))
	if noteId == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	var req contract.MediaRemoveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	note, apierr := n.NoteService.RemoveMedia(c.Request().Context(), user, noteId, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}
