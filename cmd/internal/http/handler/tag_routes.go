package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"studynotes/cmd/internal/contract"
	"studynotes/cmd/internal/domain/entity"
	"studynotes/cmd/internal/utils"
	"studynotes/cmd/internal/utils/apierror"
)

type TagService interface {
	GetTags(ctx context.Context, actor *entity.User) ([]string, apierror.ErrorResponse)
	GetNotesByTag(ctx context.Context, actor *entity.User, tag string) ([]*contract.NoteResponse, apierror.ErrorResponse)
	AddTag(ctx context.Context, actor *entity.User, noteID, tag string) apierror.ErrorResponse
	RemoveTag(ctx context.Context, actor *entity.User, noteID, tag string) apierror.ErrorResponse
}

type DefaultTagRoute struct {
	TagService TagService
}

func NewTagDefault(tagService TagService) *DefaultTagRoute {
	return &DefaultTagRoute{TagService: tagService}
}

func (t *DefaultTagRoute) GetTags(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	tags, apierr := t.TagService.GetTags(c.Request().Context(), user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"tags": tags}
	return c.JSON(http.StatusOK, &resp)
}

func (t *DefaultTagRoute) GetNotesByTag(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	tag := strings.TrimSpace(c.Param("tag"))
	if tag == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("tag"))
	}

	notes, apierr := t.TagService.GetNotesByTag(c.Request().Context(), user, tag)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"notes": notes}
	return c.JSON(http.StatusOK, &resp)
}

func (t *DefaultTagRoute) AddTag(c echo.Context) error {
	return t.mutateTag(c, t.TagService.AddTag)
}

func (t *DefaultTagRoute) RemoveTag(c echo.Context) error {
	return t.mutateTag(c, t.TagService.RemoveTag)
}

func (t *DefaultTagRoute) mutateTag(c echo.Context, op func(ctx context.Context, actor *entity.User, noteID, tag string) apierror.ErrorResponse) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	noteId := strings.TrimSpace(c.Param("noteId"))
	if noteId == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("noteId"))
	}

	tag := strings.TrimSpace(c.Param("tag"))
	if tag == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("tag"))
	}

	if apierr := op(c.Request().Context(), user, noteId, tag); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}
