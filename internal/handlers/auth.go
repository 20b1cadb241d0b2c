package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nilesh-agrahari/SecureFileShare/internal/middleware"
	"github.com/nilesh-agrahari/SecureFileShare/internal/models"
	"github.com/nilesh-agrahari/SecureFileShare/internal/repository"
	"github.com/nilesh-agrahari/SecureFileShare/internal/service"
)

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

type signupResponse struct {
	Message          string `json:"message"`
	Email            string `json:"email"`
	VerificationLink string `json:"verificationLink"`
}

func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     models.AccountRole(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already exists"})
		case errors.Is(err, service.ErrInvalidSignup):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error().Err(err).Msg("signup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		}
		return
	}

	c.JSON(http.StatusOK, signupResponse{
		Message:          "Signup successful. Check email to verify.",
		Email:            result.Account.Email,
		VerificationLink: result.VerificationLink,
	})
}

func (h HandlerSet) VerifyEmail(c *gin.Context) {
	if err := h.authService.Verify(c.Request.Context(), c.Param("token")); err != nil {
		if errors.Is(err, service.ErrLinkInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired link"})
			return
		}
		h.log.Error().Err(err).Msg("email verification failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully."})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, service.ErrEmailNotVerified):
			c.JSON(http.StatusForbidden, gin.H{"error": "email not verified"})
		default:
			h.log.Error().Err(err).Msg("login failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		}
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:   result.Token,
		Email:   result.Account.Email,
		Role:    string(result.Account.Role),
		Message: "Login successful",
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.AccessToken(c)); err != nil {
		h.log.Error().Err(err).Msg("logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.Status(http.StatusNoContent)
}
