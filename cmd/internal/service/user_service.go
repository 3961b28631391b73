package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"

	"studynotes/cmd/internal/contract"
	cognitoclient "studynotes/cmd/internal/infrastructure/aws/cognito"
	"studynotes/cmd/internal/utils"
	"studynotes/cmd/internal/utils/apierror"
)

// UserService fronts the identity provider. Accounts live entirely in
// Cognito; this layer only validates input and maps provider errors.
type UserService struct {
	Validate *validator.Validate
	Cognito  cognitoclient.CognitoInterface
}

func NewUserService(validate *validator.Validate, cogClient cognitoclient.CognitoInterface) *UserService {
	return &UserService{
		Validate: validate,
		Cognito:  cogClient,
	}
}

// CreateUser registers the account on Cognito, which sends a verification
// code to the user's email address.
func (u *UserService) CreateUser(ctx context.Context, req *contract.CreateUserRequest) apierror.ErrorResponse {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	cogUser := &cognitoclient.User{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	}

	sub, err := u.Cognito.SignUp(ctx, cogUser)
	if err != nil {
		return utils.MapCognitoError(err)
	}

	log.Infof("registered user %s", sub)
	return nil
}

func (u *UserService) Login(ctx context.Context, req *contract.UserLoginRequest) (*contract.UserLoginResponse, apierror.ErrorResponse) {
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	auth, err := u.Cognito.SignIn(ctx, &cognitoclient.UserLogin{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, utils.MapCognitoError(err)
	}

	return &contract.UserLoginResponse{
		AccessToken: auth.AccessToken,
		IDToken:     auth.IDToken,
	}, nil
}

func (u *UserService) ConfirmSignup(ctx context.Context, req *contract.ConfirmSignupRequest) apierror.ErrorResponse {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	err := u.Cognito.ConfirmAccount(ctx, &cognitoclient.UserConfirmation{
		Email: req.Email,
		Code:  req.Code,
	})
	if err != nil {
		return utils.MapCognitoError(err)
	}
	return nil
}

func (u *UserService) ResendConfirmation(ctx context.Context, req *contract.ResendConfirmRequest) apierror.ErrorResponse {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	if err := u.Cognito.ResendConfirmation(ctx, req.Email); err != nil {
		return utils.MapCognitoError(err)
	}
	return nil
}

// Logout invalidates every session the user holds, on all devices.
func (u *UserService) Logout(ctx context.Context, req *contract.LogoutRequest) apierror.ErrorResponse {
	if err := u.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	if err := u.Cognito.GlobalSignOut(ctx, req.AccessToken); err != nil {
		return utils.MapCognitoError(err)
	}
	return nil
}
