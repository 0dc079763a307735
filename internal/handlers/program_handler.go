package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/clinic-records-api/internal/models"
	"github.com/harentsoaR/clinic-records-api/internal/services"
)

// ProgramRequest is the body of program create and update calls. Absent
// fields are left untouched on update.
type ProgramRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

func (r ProgramRequest) patch() (models.ProgramPatch, error) {
	p := models.ProgramPatch{Name: r.Name, Description: r.Description, Active: r.Active}
	if r.StartDate != nil {
		t, err := models.ParseDate(*r.StartDate)
		if err != nil {
			return p, services.ValidationError("startDate: "+err.Error(), err)
		}
		p.StartDate = &t
	}
	return p, nil
}

func (h *Handler) GetPrograms(c *gin.Context) {
	programs, err := h.Programs.ListPrograms(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, programs, nil)
}

func (h *Handler) GetProgram(c *gin.Context) {
	id, ok := parseID(c, "id", "program")
	if !ok {
		return
	}
	program, err := h.Programs.GetProgram(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, program)
}

func (h *Handler) CreateProgram(c *gin.Context) {
	creatorID, ok := callerID(c)
	if !ok {
		return
	}
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.respondError(c, err)
		return
	}

	in := services.ProgramInput{StartDate: patch.StartDate, Active: patch.Active}
	if patch.Name != nil {
		in.Name = *patch.Name
	}
	if patch.Description != nil {
		in.Description = *patch.Description
	}
	program, err := h.Programs.CreateProgram(c.Request.Context(), in, creatorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, program)
}

func (h *Handler) UpdateProgram(c *gin.Context) {
	id, ok := parseID(c, "id", "program")
	if !ok {
		return
	}
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.respondError(c, err)
		return
	}
	program, err := h.Programs.UpdateProgram(c.Request.Context(), id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, program)
}

func (h *Handler) DeleteProgram(c *gin.Context) {
	id, ok := parseID(c, "id", "program")
	if !ok {
		return
	}
	if err := h.Programs.DeleteProgram(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{})
}

func (h *Handler) GetProgramStats(c *gin.Context) {
	stats, err := h.Programs.GetProgramStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, stats)
}
