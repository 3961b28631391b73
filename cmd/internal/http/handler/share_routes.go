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

type ShareService interface {
	ShareItem(ctx context.Context, actor *entity.User, req *contract.ShareRequest) (*contract.ShareResponse, apierror.ErrorResponse)
	RemoveShare(ctx context.Context, actor *entity.User, shareID string) apierror.ErrorResponse
	SharedWithMe(ctx context.Context, actor *entity.User) ([]*contract.ShareResponse, apierror.ErrorResponse)
	SharedByMe(ctx context.Context, actor *entity.User) ([]*contract.ShareResponse, apierror.ErrorResponse)
	SharesForItem(ctx context.Context, actor *entity.User, itemType, itemID string) ([]*contract.ShareResponse, apierror.ErrorResponse)
}

type DefaultShareRoute struct {
	ShareService ShareService
}

func NewShareDefault(shareService ShareService) *DefaultShareRoute {
	return &DefaultShareRoute{ShareService: shareService}
}

func (s *DefaultShareRoute) ShareItem(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.ShareRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	share, apierr := s.ShareService.ShareItem(c.Request().Context(), user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, share)
}

func (s *DefaultShareRoute) RemoveShare(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	shareId := strings.TrimSpace(c.Param("id"))
	if shareId == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	if apierr := s.ShareService.RemoveShare(c.Request().Context(), user, shareId); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func (s *DefaultShareRoute) GetSharedWithMe(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	shares, apierr := s.ShareService.SharedWithMe(c.Request().Context(), user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"shares": shares}
	return c.JSON(http.StatusOK, &resp)
}

func (s *DefaultShareRoute) GetSharedByMe(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	shares, apierr := s.ShareService.SharedByMe(c.Request().Context(), user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"shares": shares}
	return c.JSON(http.StatusOK, &resp)
}

func (s *DefaultShareRoute) GetSharesForItem(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	itemType := strings.TrimSpace(c.Param("itemType"))
	itemId := strings.TrimSpace(c.Param("itemId"))
	if itemType == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("itemType"))
	}
	if itemId == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("itemId"))
	}

	shares, apierr := s.ShareService.SharesForItem(c.Request().Context(), user, itemType, itemId)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"shares": shares}
	return c.JSON(http.StatusOK, &resp)
}
