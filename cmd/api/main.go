package main

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"studynotes/cmd/internal/domain/policy"
	"studynotes/cmd/internal/domain/sqlite"
	handler2 "studynotes/cmd/internal/http/handler"
	authmw "studynotes/cmd/internal/http/middleware"
	cognitoclient "studynotes/cmd/internal/infrastructure/aws/cognito"
	"studynotes/cmd/internal/infrastructure/aws/storage"
	"studynotes/cmd/internal/service"
	"studynotes/cmd/internal/utils"
	"studynotes/cmd/internal/utils/validators"
)

const envVarsPrefix = "/studynotes/prod/"

func main() {
	validate := validator.New()
	registerValidators(validate)

	// Loads env vars depending on environment
	if os.Getenv("GO_ENV") == "production" {
		loadProdEnv() // AWS SSM Parameter Store
	} else {
		// Loads from .env
		err := godotenv.Load()
		if err != nil {
			panic(err)
		}
	}

	// Init SQLite-backed document store
	dbPath := os.Getenv("SQLITE_PATH")
	if dbPath == "" {
		dbPath = "studynotes.db"
	}
	db, err := sqlite.Init(dbPath)
	if err != nil {
		panic(err)
	}
	store := sqlite.NewStore(db)

	// Init JWKS for token verification
	region := os.Getenv("AWS_COGNITO_REGION")
	poolId := os.Getenv("COGNITO_USER_POOL_ID")
	if err = utils.InitJWKS(region, poolId); err != nil {
		panic(err)
	}

	// Init cognito client
	cogClient, err := cognitoclient.InitCognitoClient()
	if err != nil {
		panic(err)
	}

	// Init S3 client
	s3Client, err := storage.NewStorageClient()
	if err != nil {
		panic(err)
	}

	// Getting services
	access := service.NewAccessResolver(store)
	itemPolicy := policy.NewItemPolicy()
	subjectService := service.NewSubjectService(store, access, itemPolicy, validate)
	noteService := service.NewNoteService(store, access, itemPolicy, s3Client, validate)
	shareService := service.NewShareService(store, access, itemPolicy, validate)
	tagService := service.NewTagService(store, access, itemPolicy)
	userService := service.NewUserService(validate, cogClient)

	// Getting handlers
	subjectRoutes := handler2.NewSubjectDefault(subjectService)
	noteRoutes := handler2.NewNoteDefault(noteService)
	shareRoutes := handler2.NewShareDefault(shareService)
	tagRoutes := handler2.NewTagDefault(tagService)
	userRoutes := handler2.NewUserDefault(userService)

	e := echo.New()
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("30M"))

	authed := e.Group("/api", authmw.NewAuthMiddleware())

	// Subjects
	authed.GET("/subjects", subjectRoutes.GetSubjects)
	authed.GET("/subjects/:id", subjectRoutes.GetSubject)
	authed.POST("/subjects", subjectRoutes.CreateSubject)
	authed.PUT("/subjects/:id", subjectRoutes.UpdateSubject)
	authed.DELETE("/subjects/:id", subjectRoutes.DeleteSubject)
	authed.GET("/subjects/:id/notes", subjectRoutes.GetSubjectNotes)

	// Notes
	authed.GET("/notes", noteRoutes.GetRecentNotes)
	authed.GET("/notes/:id", noteRoutes.GetNote)
	authed.POST("/notes", noteRoutes.CreateNote)
	authed.PUT("/notes/:id", noteRoutes.UpdateNote)
	authed.DELETE("/notes/:id", noteRoutes.DeleteNote)
	authed.POST("/notes/:id/media", noteRoutes.AddMedia)
	authed.DELETE("/notes/:id/media", noteRoutes.RemoveMedia)

	// Shares
	authed.GET("/shares/with-me", shareRoutes.GetSharedWithMe)
	authed.GET("/shares/by-me", shareRoutes.GetSharedByMe)
	authed.GET("/shares/:itemType/:itemId", shareRoutes.GetSharesForItem)
	authed.POST("/shares", shareRoutes.ShareItem)
	authed.DELETE("/shares/:id", shareRoutes.RemoveShare)

	// Tags
	authed.GET("/tags", tagRoutes.GetTags)
	authed.GET("/tags/:tag/notes", tagRoutes.GetNotesByTag)
	authed.POST("/tags/:noteId/:tag", tagRoutes.AddTag)
	authed.DELETE("/tags/:noteId/:tag", tagRoutes.RemoveTag)

	// Users (no auth, these issue the tokens)
	e.POST("/api/users", userRoutes.CreateUser)
	e.POST("/api/users/login", userRoutes.CreateLogin)
	e.POST("/api/users/confirms", userRoutes.ConfirmSignup)
	e.POST("/api/users/confirms/resend", userRoutes.ResendConfirmation)
	e.POST("/api/users/logout", userRoutes.Logout)

	// Docker Compose healthcheck
	e.GET("/health", healthCheckRoute)

	if err := e.Start(":7070"); err != nil {
		panic(err)
	}
}

func registerValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("hasupper", validators.HasUpper)
	_ = validate.RegisterValidation("haslower", validators.HasLower)
	_ = validate.RegisterValidation("hasdigit", validators.HasDigit)
	_ = validate.RegisterValidation("hasspecial", validators.HasSpecial)
	_ = validate.RegisterValidation("nodupes", validators.NoDupes)
	_ = validate.RegisterValidation("nospaces", validators.NoWhiteSpaces)
}

func loadProdEnv() {
	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-2"))
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	client := ssm.NewFromConfig(cfg)
	out, err := client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
		Path:           aws.String(envVarsPrefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})
	if err != nil {
		log.Fatalf("unable to load prod environment, %v", err)
	}

	prefixLength := len(envVarsPrefix)
	// Export vars
	for _, param := range out.Parameters {
		key := (*param.Name)[prefixLength:]
		value := *param.Value
		enverr := os.Setenv(key, value)
		if enverr != nil {
			log.Fatalf("unable to set environment variable, %v", enverr)
		}
	}
	log.Debugf("loaded %d prod environment variables", len(out.Parameters))
}

func healthCheckRoute(c echo.Context) error {
	return c.String(200, "OK")
}
