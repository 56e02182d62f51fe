package service

import (
	"net/http"

	commonerrors "github.com/kyodo/backend/internal/common/errors"
)

var (
	// ErrInvalidCredentials is the only signal a caller gets for an unknown
	// login or a wrong password.
	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid login or password",
	)

	ErrRegistrationFailed = commonerrors.NewInternalError("REGISTRATION_FAILED")

	ErrLoginFailed = commonerrors.NewInternalError("LOGIN_FAILED")
)
