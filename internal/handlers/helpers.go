package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"medassist/internal/common"
	"medassist/internal/models"
	"medassist/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// maxImageSize bounds multipart image uploads.
const maxImageSize = 5 << 20

type validatable interface {
	Validate() error
}

// bind decodes the request body. Services run the ozzo rules themselves.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	return nil
}

// bindAndValidate binds the request body into req and runs its ozzo rules.
func bindAndValidate(c echo.Context, req validatable) error {
	if err := bind(c, req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return common.NewValidationError(err.Error())
	}
	return nil
}

// callerFrom returns the authenticated caller. Routes using it sit behind
// the JWT middleware, so a miss is a wiring error reported as 401.
func callerFrom(c echo.Context) (models.Caller, error) {
	caller, ok := common.GetCallerFromContext(c.Request().Context())
	if !ok {
		return models.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "Not authorized to access this route")
	}
	return caller, nil
}

func paramUUID(c echo.Context, name, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, common.NewValidationError("Invalid " + resource + " id")
	}
	return id, nil
}

func queryInt(c echo.Context, name string) int {
	n, _ := strconv.Atoi(c.QueryParam(name))
	return n
}

func queryFloatPtr(c echo.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, common.NewValidationError("Invalid " + name)
	}
	return &f, nil
}

func queryIntPtr(c echo.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, common.NewValidationError("Invalid " + name)
	}
	return &n, nil
}

// queryBoolPtr accepts only the literal strings "true" and "false".
func queryBoolPtr(c echo.Context, name string) *bool {
	switch c.QueryParam(name) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

// imageUpload reads the "image" multipart field.
func imageUpload(c echo.Context) (*services.ImageUpload, func(), error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, nil, common.NewValidationError("Please upload an image file")
	}
	if file.Size > maxImageSize {
		return nil, nil, common.NewValidationError("Image must be 5MB or smaller")
	}
	src, err := file.Open()
	if err != nil {
		return nil, nil, common.NewInternalMessage("Failed to read uploaded file", err)
	}
	upload := &services.ImageUpload{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Body:        src,
	}
	return upload, func() { _ = src.Close() }, nil
}
