package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/clinic-records-api/internal/models"
	"github.com/harentsoaR/clinic-records-api/internal/services"
)

type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login. The password hash never
// leaves the server because User hides it from JSON.
type AuthResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Users.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.issueToken(c, http.StatusCreated, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.issueToken(c, http.StatusOK, user)
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	user, err := h.Users.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

func (h *Handler) issueToken(c *gin.Context, status int, user *models.User) {
	token, err := h.Tokens.Generate(user.ID.Hex(), user.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(status, AuthResponse{Success: true, Token: token, User: user})
}
