package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"biliticket/otpservice/internal/model"
	"biliticket/otpservice/internal/service"
	"biliticket/otpservice/pkg/response"
)

const (
	msgGenerateFieldsRequired = "mobile number and user id must not be empty"
	msgValidateFieldsRequired = "mobile number, user id and otp must not be empty"
	msgMobileSeparator        = "mobile number must not contain '" + model.KeySeparator + "'"
	msgInvalidOrExpired       = "invalid or expired otp"
	msgValidated              = "otp validated successfully"
	msgStoreUnavailable       = "otp store unavailable, try again later"
)

type OTPHandler struct {
	otpService service.OTPService
	ttl        time.Duration
	exposeCode bool
}

// NewOTPHandler builds the OTP endpoints. exposeCode returns the generated
// code in the response body, for local testing without an SMS channel.
func NewOTPHandler(otpService service.OTPService, ttl time.Duration, exposeCode bool) *OTPHandler {
	return &OTPHandler{otpService: otpService, ttl: ttl, exposeCode: exposeCode}
}

type GenerateRequest struct {
	MobileNumber string `json:"mobileNumber"`
	UserID       string `json:"userId"`
}

type ValidateRequest struct {
	MobileNumber string `json:"mobileNumber"`
	UserID       string `json:"userId"`
	OTP          string `json:"otp"`
}

type GenerateResponse struct {
	OTP       string `json:"otp,omitempty"`
	ExpiresIn int64  `json:"expires_in"`
}

func (h *OTPHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if blank(req.MobileNumber) || blank(req.UserID) {
		response.BadRequest(c, msgGenerateFieldsRequired)
		return
	}
	if strings.Contains(req.MobileNumber, model.KeySeparator) {
		response.BadRequest(c, msgMobileSeparator)
		return
	}

	code, err := h.otpService.Generate(c.Request.Context(), req.MobileNumber, req.UserID)
	if err != nil {
		h.writeError(c, err, msgGenerateFieldsRequired)
		return
	}

	resp := GenerateResponse{ExpiresIn: int64(h.ttl.Seconds())}
	if h.exposeCode {
		resp.OTP = code
	}
	response.Success(c, resp)
}

func (h *OTPHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if blank(req.MobileNumber) || blank(req.UserID) || blank(req.OTP) {
		response.BadRequest(c, msgValidateFieldsRequired)
		return
	}
	if strings.Contains(req.MobileNumber, model.KeySeparator) {
		response.BadRequest(c, msgMobileSeparator)
		return
	}

	ok, err := h.otpService.Validate(c.Request.Context(), req.MobileNumber, req.UserID, req.OTP)
	if err != nil {
		h.writeError(c, err, msgValidateFieldsRequired)
		return
	}
	// Not found, mismatch and expired look identical to the caller.
	if !ok {
		response.BadRequest(c, msgInvalidOrExpired)
		return
	}
	response.SuccessWithMessage(c, msgValidated, nil)
}

func (h *OTPHandler) writeError(c *gin.Context, err error, invalidInputMsg string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, invalidInputMsg)
	case errors.Is(err, service.ErrStoreUnavailable):
		response.ServiceUnavailable(c, msgStoreUnavailable)
	default:
		_ = c.Error(err)
		response.InternalError(c, "internal server error")
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
