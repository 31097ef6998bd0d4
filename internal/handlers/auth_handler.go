package handlers

import (
	"net/http"

	"github.com/catprep/mocktest-service/internal/services"
	"github.com/catprep/mocktest-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	BaseHandler
	userService services.UserService
}

func NewAuthHandler(userService services.UserService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// Signup registers a new student account.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Signup(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "User registered successfully", user)
}

// Login identifies a student by username and issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
