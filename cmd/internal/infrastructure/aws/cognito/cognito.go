package cognitoclient

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// User is the default user struct for all basic Cognito operations.
type User struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// UserConfirmation is the default structure for approving e-mail verification.
type UserConfirmation struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// UserLogin defines the standard structure for logging in to the application.
type UserLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthCreate represents the response of Cognito sign in approval.
type AuthCreate struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
}

type CognitoInterface interface {
	SignUp(ctx context.Context, user *User) (string, error)
	SignIn(ctx context.Context, user *UserLogin) (*AuthCreate, error)
	GlobalSignOut(ctx context.Context, accessToken string) error
	ConfirmAccount(ctx context.Context, user *UserConfirmation) error
	ResendConfirmation(ctx context.Context, email string) error
}

type cognitoClient struct {
	cognitoClient *cognito.Client
	appClientId   string
}

func InitCognitoClient() (CognitoInterface, error) {
	region := os.Getenv("AWS_COGNITO_REGION")
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &cognitoClient{
		cognitoClient: cognito.NewFromConfig(cfg),
		appClientId:   os.Getenv("COGNITO_APP_CLIENT_ID"),
	}, nil
}

// SignUp creates a new user row on Cognito and returns its "sub" (the UUID)
func (c *cognitoClient) SignUp(ctx context.Context, user *User) (string, error) {
	userCognito := &cognito.SignUpInput{
		ClientId: aws.String(c.appClientId),
		Username: aws.String(user.Email),
		Password: aws.String(user.Password),
		UserAttributes: []types.AttributeType{
			{
				Name:  aws.String("email"),
				Value: aws.String(user.Email),
			},
			{
				Name:  aws.String("name"),
				Value: aws.String(user.Name),
			},
		},
	}
	out, err := c.cognitoClient.SignUp(ctx, userCognito)
	if err != nil {
		return "", err
	}
	return *out.UserSub, nil
}

// GlobalSignOut signs out all the user session in all devices.
// In other words, it invalidates all the existing JWT tokens
func (c *cognitoClient) GlobalSignOut(ctx context.Context, accessToken string) error {
	logout := &cognito.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	}
	_, err := c.cognitoClient.GlobalSignOut(ctx, logout)
	if err != nil {
		return err
	}
	return nil
}

// ConfirmAccount is used to verify the user's e-mail address
func (c *cognitoClient) ConfirmAccount(ctx context.Context, user *UserConfirmation) error {
	confirmationInput := &cognito.ConfirmSignUpInput{
		Username:         aws.String(user.Email),
		ConfirmationCode: aws.String(user.Code),
		ClientId:         aws.String(c.appClientId),
	}
	_, err := c.cognitoClient.ConfirmSignUp(ctx, confirmationInput)
	if err != nil {
		return err
	}
	return nil
}

// ResendConfirmation resends the verification code to the provided e-mail
func (c *cognitoClient) ResendConfirmation(ctx context.Context, email string) error {
	confirmationInput := &cognito.ResendConfirmationCodeInput{
		Username: aws.String(email),
		ClientId: aws.String(c.appClientId),
	}
	_, err := c.cognitoClient.ResendConfirmationCode(ctx, confirmationInput)
	if err != nil {
		return err
	}
	return nil
}

// SignIn signs the user in... pretty straightforward
func (c *cognitoClient) SignIn(ctx context.Context, user *UserLogin) (*AuthCreate, error) {
	authInput := &cognito.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": user.Email,
			"PASSWORD": user.Password,
		},
		ClientId: aws.String(c.appClientId),
	}
	result, err := c.cognitoClient.InitiateAuth(ctx, authInput)
	if err != nil {
		return nil, err
	}
	return &AuthCreate{
		IDToken:     *result.AuthenticationResult.IdToken,
		AccessToken: *result.AuthenticationResult.AccessToken,
	}, nil
}
