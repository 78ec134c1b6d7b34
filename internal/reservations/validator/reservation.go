package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"roomly/pkg/logger"
	"roomly/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Messages flattens the errors into the list handed back to the caller.
func (v ValidationErrors) Messages() []string {
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Message)
	}
	return messages
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	return &ReservationValidator{
		validate: validator.New(),
		logger:   log,
	}
}

// ValidateCreate checks a booking request against the reference time and
// returns every violated rule, not just the first. The caller gets a
// complete correction list in a single round trip.
func (v *ReservationValidator) ValidateCreate(req *model.BookingRequest, now time.Time) ValidationErrors {
	req.RoomID = strings.TrimSpace(req.RoomID)
	req.ReservedBy = strings.TrimSpace(req.ReservedBy)

	validationErrors := v.structErrors(req)

	if !req.StartTime.IsZero() && !req.EndTime.IsZero() && !req.EndTime.After(req.StartTime) {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "EndTime",
			Message: "end_time must be after start_time",
		})
	}
	if !req.StartTime.IsZero() && req.StartTime.Before(now) {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "StartTime",
			Message: "start_time cannot be in the past",
		})
	}

	return validationErrors
}

// ValidateFreeSlots checks a free-slot query. Same all-errors-collected
// policy as ValidateCreate.
func (v *ReservationValidator) ValidateFreeSlots(query *model.FreeSlotQuery) ValidationErrors {
	query.RoomID = strings.TrimSpace(query.RoomID)

	validationErrors := v.structErrors(query)

	if !query.RangeStart.IsZero() && !query.RangeEnd.IsZero() && !query.RangeEnd.After(query.RangeStart) {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "RangeEnd",
			Message: "range_end must be after range_start",
		})
	}
	if query.MinHours <= 0 {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "MinHours",
			Message: "min_hours must be positive",
		})
	}

	return validationErrors
}

func (v *ReservationValidator) structErrors(value any) ValidationErrors {
	err := v.validate.Struct(value)
	if err == nil {
		return nil
	}

	var structErrs validator.ValidationErrors
	if !errors.As(err, &structErrs) {
		v.logger.Error("Struct validation failed unexpectedly", "error", err)
		return ValidationErrors{{Field: "request", Message: "invalid request"}}
	}

	return v.translateValidationErrors(structErrs)
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
