package handlers

import (
	"fmt"
	"github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/go-playground/validator/v10"
	"sync"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// required fields that have a dedicated message
var requiredMessages = map[string]string{
	"AccountID":            errors.ErrAccountIDRequired,
	"SourceAccountID":      "Source account is required",
	"DestinationAccountID": "Destination account is required",
}

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateRequest checks the struct tags of a request DTO and returns the first failure as a BadRequestError.
func validateRequest(payload interface{}) error {
	err := getValidator().Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return errors.NewBadRequestError(errors.ErrInvalidRequestBody)
	}

	fe := fieldErrors[0]
	if msg, ok := requiredMessages[fe.Field()]; ok && fe.Tag() == "required" {
		return errors.NewBadRequestError(msg)
	}
	switch fe.Tag() {
	case "max":
		return errors.NewBadRequestError(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	case "len", "alpha":
		return errors.NewBadRequestError(fmt.Sprintf("Invalid %s", fe.Field()))
	}
	return errors.NewBadRequestError(fmt.Sprintf("%s is invalid", fe.Field()))
}
