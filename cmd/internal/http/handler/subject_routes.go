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

type SubjectService interface {
	GetSubjects(ctx context.Context, actor *entity.User) ([]*contract.SubjectResponse, apierror.ErrorResponse)
	GetSubject(ctx context.Context, actor *entity.User, subjectID string) (*contract.SubjectResponse, apierror.ErrorResponse)
	CreateSubject(ctx context.Context, actor *entity.User, req *contract.SubjectRequest) (*contract.SubjectResponse, apierror.ErrorResponse)
	UpdateSubject(ctx context.Context, actor *entity.User, subjectID string, req *contract.SubjectRequest) (*contract.SubjectResponse, apierror.ErrorResponse)
	DeleteSubject(ctx context.Context, actor *entity.User, subjectID string) apierror.ErrorResponse
	GetSubjectNotes(ctx context.Context, actor *entity.User, subjectID string) ([]*contract.NoteResponse, apierror.ErrorResponse)
}

type DefaultSubjectRoute struct {
	SubjectService SubjectService
}

func NewSubjectDefault(subjectService SubjectService) *DefaultSubjectRoute {
	return &DefaultSubjectRoute{SubjectService: subjectService}
}

func (s *DefaultSubjectRoute) GetSubjects(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	subjects, apierr := s.SubjectService.GetSubjects(c.Request().Context(), user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"subjects": subjects}
	return c.JSON(http.StatusOK, &resp)
}

func (s *DefaultSubjectRoute) GetSubject(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	subjectId := strings.TrimSpace(c.Param("id"))
	if subjectId == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	subject, apierr := s.SubjectService.GetSubject(c.Request().Context(), user, subjectId)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, subject)
}

func (s *DefaultSubjectRoute) CreateSubject(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.SubjectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	subject, apierr := s.SubjectService.CreateSubject(c.Request().Context(), user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, subject)
}

func (s *DefaultSubjectRoute) UpdateSubject(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	subjectId := strings.TrimSpace(c.Param("id"))
	if subjectId == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	var req contract.SubjectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	subject, apierr := s.SubjectService.UpdateSubject(c.Request().Context(), user, subjectId, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, subject)
}

func (s *DefaultSubjectRoute) DeleteSubject(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	subjectId := strings.TrimSpace(c.Param("id"))
	if subjectId == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	if apierr := s.SubjectService.DeleteSubject(c.Request().Context(), user, subjectId); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func (s *DefaultSubjectRoute) GetSubjectNotes(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	subjectId := strings.TrimSpace(c.Param("id"))
	if subjectId == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	notes, apierr := s.SubjectService.GetSubjectNotes(c.Request().Context(), user, subjectId)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"notes": notes}
	return c.JSON(http.StatusOK, &resp)
}
