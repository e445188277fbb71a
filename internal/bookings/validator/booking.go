package validator

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"roombook/pkg/model"
	"roombook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

var (
	yearRegex  = regexp.MustCompile(`^\d{4}$`)
	monthRegex = regexp.MustCompile(`^\d{1,2}$`)
)

type BookingValidator struct {
	validate *validator.Validate
}

func NewBookingValidator() *BookingValidator {
	return &BookingValidator{validate: validation.New()}
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := validation.Struct(v.validate, booking); err != nil {
		return err
	}
	if booking.Date.IsZero() {
		return validation.ValidationErrors{{Field: "date", Message: "date is required"}}
	}
	return nil
}

// ParseReportPeriod accepts a four digit year and a month of 1..12, with or without a
// leading zero.
func ParseReportPeriod(year, month string) (int, time.Month, error) {
	year, month = strings.TrimSpace(year), strings.TrimSpace(month)

	var errs validation.ValidationErrors
	y, m := 0, 0
	if !yearRegex.MatchString(year) {
		errs = append(errs, validation.ValidationError{Field: "year", Message: "year must be a four digit number"})
	} else {
		y, _ = strconv.Atoi(year)
	}
	if monthRegex.MatchString(month) {
		m, _ = strconv.Atoi(month)
	}
	if m < 1 || m > 12 {
		errs = append(errs, validation.ValidationError{Field: "month", Message: "month must be between 1 and 12"})
	}

	if len(errs) > 0 {
		return 0, 0, errs
	}
	return y, time.Month(m), nil
}
