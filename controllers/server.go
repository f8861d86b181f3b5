package controllers

import (
	"context"
	"log"
	"net/http"

	"hairtryapi/models"
	"hairtryapi/services"
	"hairtryapi/studio"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		// Optionally, you could return the error to give each route more control over the status code
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func SetupServer(
	store *studio.Store,
	generator services.ImageGenProvider,
	orchestrator *studio.Orchestrator,
	awsService services.AWSServiceProvider,
	urlCache services.URLCacheServiceProvider,
) *echo.Echo {

	if awsService != nil {
		err := awsService.InitPresignClient(context.Background())
		if err != nil {
			log.Fatal("Failed to initialize AWS provider: S3")
		}
	}

	e := echo.New()
	v := validator.New()
	v.RegisterValidation("styleid", models.ValidateStyleID)
	v.RegisterValidation("stylecategory", models.ValidateStyleCategory)
	e.Validator = &CustomValidator{validator: v}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__store", store)
			return next(c)
		}
	})

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	apiGroup := e.Group("/api")

	generateController := GenerateController{Generator: generator}
	generateController.GenerateRoutes(apiGroup)

	studioController := StudioController{
		Store:        store,
		Orchestrator: orchestrator,
		AWSService:   awsService,
		URLCache:     urlCache,
	}
	studioController.StudioRoutes(apiGroup)

	return e
}
