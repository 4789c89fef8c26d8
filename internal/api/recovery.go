package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campushub/campushub/internal/recovery"
)

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type VerifyOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Otp         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// RecoveryResponse is the success shape shared by the three recovery
// endpoints.
type RecoveryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// recoveryError is the failure shape for the recovery endpoints.
type recoveryError struct {
	Error string `json:"error"`
}

func (s *CampusHubApp) writeRecoveryError(w http.ResponseWriter, apiErr *ApiError) {
	s.writeJson(w, apiErr.StatusCode, recoveryError{Error: apiErr.Message})
}

func (s *CampusHubApp) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		s.writeRecoveryError(w, NewBadRequestError())
		return
	}

	if _, err := s.recovery.Request(req.Email); err != nil {
		var errResp *ApiError
		if errors.Is(err, recovery.ErrAccountNotFound) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeRecoveryError(w, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, RecoveryResponse{
		Success: true,
		Message: "a recovery code was sent to your email",
	})
}

func (s *CampusHubApp) verifyOtp(w http.ResponseWriter, r *http.Request) {
	var req VerifyOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Otp == "" {
		s.writeRecoveryError(w, NewBadRequestError())
		return
	}

	if err := s.recovery.Verify(req.Email, req.Otp); err != nil {
		var errResp *ApiError
		switch {
		case errors.Is(err, recovery.ErrTooManyAttempts):
			errResp = NewTooManyRequestsError()
		case errors.Is(err, recovery.ErrNoActiveRequest),
			errors.Is(err, recovery.ErrExpired),
			errors.Is(err, recovery.ErrInvalidCode):
			errResp = NewBadRequestError()
		default:
			errResp = NewInternalServerError(err)
		}
		s.writeRecoveryError(w, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, RecoveryResponse{
		Success: true,
		Message: "code verified",
	})
}

func (s *CampusHubApp) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Otp == "" {
		s.writeRecoveryError(w, NewBadRequestError())
		return
	}

	if err := s.recovery.Reset(req.Email, req.Otp, req.NewPassword); err != nil {
		var errResp *ApiError
		switch {
		case errors.Is(err, recovery.ErrNoActiveRequest),
			errors.Is(err, recovery.ErrExpired),
			errors.Is(err, recovery.ErrNotVerified),
			errors.Is(err, recovery.ErrWeakPassword):
			errResp = NewBadRequestError()
		default:
			errResp = NewInternalServerError(err)
		}
		s.writeRecoveryError(w, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, RecoveryResponse{
		Success: true,
		Message: "password updated",
	})
}
