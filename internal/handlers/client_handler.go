package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/clinic-records-api/internal/models"
	"github.com/harentsoaR/clinic-records-api/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientRequest is the body of client create and update calls.
type ClientRequest struct {
	FirstName     *string         `json:"firstName,omitempty"`
	LastName      *string         `json:"lastName,omitempty"`
	DateOfBirth   *string         `json:"dateOfBirth,omitempty"`
	Gender        *string         `json:"gender,omitempty"`
	ContactNumber *string         `json:"contactNumber,omitempty"`
	Address       *models.Address `json:"address,omitempty"`
}

func (r ClientRequest) patch() (models.ClientPatch, error) {
	p := models.ClientPatch{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Gender:        r.Gender,
		ContactNumber: r.ContactNumber,
		Address:       r.Address,
	}
	if r.DateOfBirth != nil {
		t, err := models.ParseDate(*r.DateOfBirth)
		if err != nil {
			return p, services.ValidationError("dateOfBirth: "+err.Error(), err)
		}
		p.DateOfBirth = &t
	}
	return p, nil
}

type EnrollRequest struct {
	ProgramID string `json:"programId"`
}

type EnrollmentStatusRequest struct {
	Status string `json:"status"`
}

// queryInt reads a positive integer query parameter, falling back to def when
// it is absent or not a number.
func queryInt(c *gin.Context, def int64, keys ...string) int64 {
	for _, k := range keys {
		if v, err := strconv.ParseInt(c.Query(k), 10, 64); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func (h *Handler) GetClients(c *gin.Context) {
	page := queryInt(c, services.DefaultPage, "page")
	pageSize := queryInt(c, services.DefaultPageSize, "limit", "pageSize")

	result, err := h.Clients.ListClients(c.Request.Context(), page, pageSize, c.Query("search"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, result.Clients, &result.Pagination)
}

func (h *Handler) SearchClients(c *gin.Context) {
	clients, err := h.Clients.SearchClients(c.Request.Context(), c.Query("query"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, clients, nil)
}

func (h *Handler) GetClient(c *gin.Context) {
	id, ok := parseID(c, "id", "client")
	if !ok {
		return
	}
	client, err := h.Clients.GetClient(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, client)
}

// GetClientPublicProfile is served without authentication.
func (h *Handler) GetClientPublicProfile(c *gin.Context) {
	id, ok := parseID(c, "id", "client")
	if !ok {
		return
	}
	profile, err := h.Clients.GetClientPublicProfile(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, profile)
}

func (h *Handler) CreateClient(c *gin.Context) {
	registrarID, ok := callerID(c)
	if !ok {
		return
	}
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.respondError(c, err)
		return
	}

	in := services.ClientInput{DateOfBirth: patch.DateOfBirth}
	if patch.FirstName != nil {
		in.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		in.LastName = *patch.LastName
	}
	if patch.Gender != nil {
		in.Gender = *patch.Gender
	}
	if patch.ContactNumber != nil {
		in.ContactNumber = *patch.ContactNumber
	}
	if patch.Address != nil {
		in.Address = *patch.Address
	}

	client, err := h.Clients.CreateClient(c.Request.Context(), in, registrarID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, client)
}

func (h *Handler) UpdateClient(c *gin.Context) {
	id, ok := parseID(c, "id", "client")
	if !ok {
		return
	}
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.respondError(c, err)
		return
	}
	client, err := h.Clients.UpdateClient(c.Request.Context(), id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, client)
}

func (h *Handler) DeleteClient(c *gin.Context) {
	id, ok := parseID(c, "id", "client")
	if !ok {
		return
	}
	if err := h.Clients.DeleteClient(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{})
}

func (h *Handler) EnrollClientInProgram(c *gin.Context) {
	clientID, ok := parseID(c, "id", "client")
	if !ok {
		return
	}
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProgramID == "" {
		respondMessage(c, http.StatusBadRequest, "Program ID is required")
		return
	}
	programID, err := primitive.ObjectIDFromHex(req.ProgramID)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid program ID")
		return
	}

	client, err := h.Clients.EnrollClientInProgram(c.Request.Context(), clientID, programID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, client)
}

func (h *Handler) RemoveClientFromProgram(c *gin.Context) {
	clientID, ok := parseID(c, "id", "client")
	if !ok {
		return
	}
	programID, ok := parseID(c, "programId", "program")
	if !ok {
		return
	}
	client, err := h.Clients.RemoveClientFromProgram(c.Request.Context(), clientID, programID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, client)
}

func (h *Handler) UpdateEnrollmentStatus(c *gin.Context) {
	clientID, ok := parseID(c, "id", "client")
	if !ok {
		return
	}
	programID, ok := parseID(c, "programId", "program")
	if !ok {
		return
	}
	var req EnrollmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	client, err := h.Clients.UpdateEnrollmentStatus(c.Request.Context(), clientID, programID, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, client)
}
