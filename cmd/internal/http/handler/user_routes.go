package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"studynotes/cmd/internal/contract"
	"studynotes/cmd/internal/utils/apierror"
)

type UserService interface {
	CreateUser(ctx context.Context, req *contract.CreateUserRequest) apierror.ErrorResponse
	Login(ctx context.Context, req *contract.UserLoginRequest) (*contract.UserLoginResponse, apierror.ErrorResponse)
	ConfirmSignup(ctx context.Context, req *contract.ConfirmSignupRequest) apierror.ErrorResponse
	ResendConfirmation(ctx context.Context, req *contract.ResendConfirmRequest) apierror.ErrorResponse
	Logout(ctx context.Context, req *contract.LogoutRequest) apierror.ErrorResponse
}

type DefaultUserRoute struct {
	UserService UserService
}

func NewUserDefault(userService UserService) *DefaultUserRoute {
	return &DefaultUserRoute{UserService: userService}
}

func (u *DefaultUserRoute) CreateUser(c echo.Context) error {
	var req contract.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	if apierr := u.UserService.CreateUser(c.Request().Context(), &req); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusCreated)
}

func (u *DefaultUserRoute) CreateLogin(c echo.Context) error {
	var req contract.UserLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := u.UserService.Login(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (u *DefaultUserRoute) ConfirmSignup(c echo.Context) error {
	var req contract.ConfirmSignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	if apierr := u.UserService.ConfirmSignup(c.Request().Context(), &req); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func (u *DefaultUserRoute) ResendConfirmation(c echo.Context) error {
	var req contract.ResendConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	if apierr := u.UserService.ResendConfirmation(c.Request().Context(), &req); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func (u *DefaultUserRoute) Logout(c echo.Context) error {
	var req contract.LogoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	if apierr := u.UserService.Logout(c.Request().Context(), &req); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}
