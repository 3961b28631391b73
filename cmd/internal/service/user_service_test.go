package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynotes/cmd/internal/contract"
	cognitoclient "studynotes/cmd/internal/infrastructure/aws/cognito"
	"studynotes/cmd/internal/utils/validators"
)

type fakeCognito struct {
	signUpErr  error
	signInErr  error
	signedUp   []*cognitoclient.User
	signedOut  []string
	confirmed  []*cognitoclient.UserConfirmation
	resent     []string
}

func (f *fakeCognito) SignUp(_ context.Context, user *cognitoclient.User) (string, error) {
	if f.signUpErr != nil {
		return "", f.signUpErr
	}
	f.signedUp = append(f.signedUp, user)
	return "sub-" + user.Email, nil
}

func (f *fakeCognito) SignIn(_ context.Context, user *cognitoclient.UserLogin) (*cognitoclient.AuthCreate, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &cognitoclient.AuthCreate{IDToken: "id-token", AccessToken: "access-token"}, nil
}

func (f *fakeCognito) GlobalSignOut(_ context.Context, accessToken string) error {
	f.signedOut = append(f.signedOut, accessToken)
	return nil
}

func (f *fakeCognito) ConfirmAccount(_ context.Context, user *cognitoclient.UserConfirmation) error {
	f.confirmed = append(f.confirmed, user)
	return nil
}

func (f *fakeCognito) ResendConfirmation(_ context.Context, email string) error {
	f.resent = append(f.resent, email)
	return nil
}

func newUserService(t *testing.T, cog cognitoclient.CognitoInterface) *UserService {
	t.Helper()

	validate := validator.New()
	require.NoError(t, validate.RegisterValidation("hasupper", validators.HasUpper))
	require.NoError(t, validate.RegisterValidation("haslower", validators.HasLower))
	require.NoError(t, validate.RegisterValidation("hasdigit", validators.HasDigit))
	require.NoError(t, validate.RegisterValidation("hasspecial", validators.HasSpecial))
	return NewUserService(validate, cog)
}

func TestCreateUser(t *testing.T) {
	cog := &fakeCognito{}
	svc := newUserService(t, cog)

	apierr := svc.CreateUser(context.Background(), &contract.CreateUserRequest{
		Name:     "Alice",
		Email:    "alice@x.com",
		Password: "Sup3r$ecret",
	})
	require.Nil(t, apierr)
	require.Len(t, cog.signedUp, 1)
	assert.Equal(t, "alice@x.com", cog.signedUp[0].Email)
}

func TestCreateUserWeakPassword(t *testing.T) {
	cog := &fakeCognito{}
	svc := newUserService(t, cog)

	apierr := svc.CreateUser(context.Background(), &contract.CreateUserRequest{
		Name:     "Alice",
		Email:    "alice@x.com",
		Password: "alllowercase",
	})
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusBadRequest, apierr.Code())
	assert.Empty(t, cog.signedUp)
}

func TestCreateUserMapsCognitoErrors(t *testing.T) {
	cog := &fakeCognito{signUpErr: &types.UsernameExistsException{}}
	svc := newUserService(t, cog)

	apierr := svc.CreateUser(context.Background(), &contract.CreateUserRequest{
		Name:     "Alice",
		Email:    "alice@x.com",
		Password: "Sup3r$ecret",
	})
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusBadRequest, apierr.Code())
}

func TestLogin(t *testing.T) {
	cog := &fakeCognito{}
	svc := newUserService(t, cog)

	resp, apierr := svc.Login(context.Background(), &contract.UserLoginRequest{
		Email:    "alice@x.com",
		Password: "Sup3r$ecret",
	})
	require.Nil(t, apierr)
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "id-token", resp.IDToken)
}

func TestLoginCredentialsMismatch(t *testing.T) {
	cog := &fakeCognito{signInErr: &types.NotAuthorizedException{}}
	svc := newUserService(t, cog)

	_, apierr := svc.Login(context.Background(), &contract.UserLoginRequest{
		Email:    "alice@x.com",
		Password: "Sup3r$ecret",
	})
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusBadRequest, apierr.Code())
}

func TestLogout(t *testing.T) {
	cog := &fakeCognito{}
	svc := newUserService(t, cog)

	apierr := svc.Logout(context.Background(), &contract.LogoutRequest{AccessToken: "tok"})
	require.Nil(t, apierr)
	assert.Equal(t, []string{"tok"}, cog.signedOut)
}

func TestConfirmAndResend(t *testing.T) {
	cog := &fakeCognito{}
	svc := newUserService(t, cog)

	apierr := svc.ConfirmSignup(context.Background(), &contract.ConfirmSignupRequest{
		Email: "alice@x.com",
		Code:  "123456",
	})
	require.Nil(t, apierr)
	require.Len(t, cog.confirmed, 1)

	apierr = svc.ResendConfirmation(context.Background(), &contract.ResendConfirmRequest{
		Email: "alice@x.com",
	})
	require.Nil(t, apierr)
	assert.Equal(t, []string{"alice@x.com"}, cog.resent)
}
