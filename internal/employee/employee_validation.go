package employee

import (
	"errors"
	"strings"
	"time"

	"github.com/mingttam/employee-management/internal/shared/apperror"
)

var validate = apperror.NewValidator()

const (
	msgFullNameLength   = "Full name must be between 4 and 160 characters"
	msgPhoneNumber      = "Phone number must be exactly 10 digits"
	msgDateOfBirthPast  = "Date of birth must be in the past"
	msgDateOfBirthValid = "Date of birth must be a valid date (YYYY-MM-DD)"
)

var fieldMessages = apperror.Messages{
	"fullName.required":    "Full name is required",
	"fullName.min":         msgFullNameLength,
	"fullName.max":         msgFullNameLength,
	"email.required":       "Email is required",
	"email.email":          "Email should be valid",
	"dateOfBirth.required": "Date of birth is required",
	"dateOfBirth.datetime": msgDateOfBirthValid,
	"gender.required":      "Gender is required",
	"gender.oneof":         "Gender must be one of MALE, FEMALE, OTHER",
	"phoneNumber.required": "Phone number is required",
	"phoneNumber.len":      msgPhoneNumber,
	"phoneNumber.digits":   msgPhoneNumber,
	"password.required":    "Password is required",
	"password.min":         "Password must be at least 6 characters long",
}

// ValidateCreateRequest checks every field of req and returns either the
// validated input or an *apperror.ValidationError listing all failing fields.
func ValidateCreateRequest(req CreateEmployeeRequest, now time.Time) (CreateEmployeeInput, error) {
	verr, err := structErrors(req)
	if err != nil {
		return CreateEmployeeInput{}, err
	}

	var dob time.Time
	if _, failed := verr.Fields["dateOfBirth"]; !failed {
		dob = checkDateOfBirth(req.DateOfBirth, now, verr)
	}

	if verr.HasErrors() {
		return CreateEmployeeInput{}, verr
	}

	return CreateEmployeeInput{
		FullName:    req.FullName,
		Email:       req.Email,
		DateOfBirth: dob,
		Gender:      Gender(req.Gender),
		PhoneNumber: req.PhoneNumber,
		Active:      req.Active,
		Password:    req.Password,
	}, nil
}

// ValidateUpdateRequest checks the supplied fields of req. Blank strings
// count as "not supplied" and are dropped before any rule runs.
func ValidateUpdateRequest(req UpdateEmployeeRequest, now time.Time) (UpdateEmployeeInput, error) {
	req = dropBlankFields(req)

	verr, err := structErrors(req)
	if err != nil {
		return UpdateEmployeeInput{}, err
	}

	in := UpdateEmployeeInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Active:      req.Active,
		Password:    req.Password,
	}

	if _, failed := verr.Fields["dateOfBirth"]; !failed && req.DateOfBirth != nil {
		dob := checkDateOfBirth(*req.DateOfBirth, now, verr)
		in.DateOfBirth = &dob
	}
	if _, failed := verr.Fields["gender"]; !failed && req.Gender != nil {
		g := Gender(*req.Gender)
		in.Gender = &g
	}

	if verr.HasErrors() {
		return UpdateEmployeeInput{}, verr
	}
	return in, nil
}

// dropBlankFields nils every text field that is empty after trimming. The
// password is dropped only when empty, since spaces are valid in it.
func dropBlankFields(req UpdateEmployeeRequest) UpdateEmployeeRequest {
	for _, f := range []**string{&req.FullName, &req.DateOfBirth, &req.Gender, &req.PhoneNumber} {
		if *f != nil && strings.TrimSpace(**f) == "" {
			*f = nil
		}
	}
	if req.Password != nil && *req.Password == "" {
		req.Password = nil
	}
	return req
}

func structErrors(req any) (*apperror.ValidationError, error) {
	err := validate.Struct(req)
	if err == nil {
		return apperror.NewValidationError(nil), nil
	}

	var verr *apperror.ValidationError
	if mapped := apperror.MapValidationError(err, fieldMessages); errors.As(mapped, &verr) {
		return verr, nil
	}
	return nil, err
}

// checkDateOfBirth parses raw (already format-checked) and requires it to be
// strictly before the calendar day of now.
func checkDateOfBirth(raw string, now time.Time, verr *apperror.ValidationError) time.Time {
	dob, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		verr.Add("dateOfBirth", msgDateOfBirthValid)
		return time.Time{}
	}

	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !dob.Before(today) {
		verr.Add("dateOfBirth", msgDateOfBirthPast)
	}
	return dob
}
