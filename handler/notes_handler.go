package handler

import (
	"errors"
	"notecheck/dto"
	"notecheck/model"
	"notecheck/usecase"
	"notecheck/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type NoteHandler struct {
	notesService *usecase.NotesService
}

func NewNoteHandler(notesService *usecase.NotesService) *NoteHandler {
	return &NoteHandler{notesService: notesService}
}

// respondError maps service errors onto the contract's status codes. Validation
// failures are 400 on create and 422 on update.
func (h *NoteHandler) respondError(c *gin.Context, err error, updating bool) {
	var validationErr *usecase.ValidationError
	switch {
	case errors.Is(err, usecase.ErrNoteNotFound):
		utils.NotFound(c, "Note not found")
	case errors.As(err, &validationErr) && updating:
		utils.UnprocessableEntity(c, validationErr.Error())
	case errors.As(err, &validationErr):
		utils.BadRequest(c, validationErr.Error())
	default:
		log.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("note operation failed")
		utils.TrackError("http", "internal")
		_ = c.Error(err)
		utils.InternalError(c, "Internal server error")
	}
}

func (h *NoteHandler) ListNotes(c *gin.Context) {
	notes, err := h.notesService.ListNotes(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err, false)
		return
	}

	utils.Success(c, dto.ToNoteResponses(notes))
}

func (h *NoteHandler) CreateNote(c *gin.Context) {
	var req dto.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackError("validation", "bind")
		utils.BadRequest(c, "Invalid request body")
		return
	}

	note := req.ToNote()
	if err := h.notesService.CreateNote(c.Request.Context(), note); err != nil {
		h.respondError(c, err, false)
		return
	}

	c.Header("Location", utils.NoteURL(c, note.ID))
	utils.Success(c, dto.ToNoteResponse(note))
}

func (h *NoteHandler) GetNote(c *gin.Context) {
	note, err := h.notesService.GetNote(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, false)
		return
	}

	utils.Success(c, dto.ToNoteResponse(note))
}

// ReplaceNote handles PUT: the body is the whole note.
func (h *NoteHandler) ReplaceNote(c *gin.Context) {
	var req dto.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackError("validation", "bind")
		utils.BadRequest(c, "Invalid request body")
		return
	}

	note, err := h.notesService.ReplaceNote(c.Request.Context(), c.Param("id"), req.ToNote())
	if err != nil {
		h.respondError(c, err, true)
		return
	}

	utils.Success(c, dto.ToNoteResponse(note))
}

// PatchNote handles PATCH: only the fields present in the body change.
func (h *NoteHandler) PatchNote(c *gin.Context) {
	var patch dto.NotePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.TrackError("validation", "bind")
		utils.BadRequest(c, "Invalid request body")
		return
	}

	var (
		note *model.Note
		err  error
	)
	if patch.Empty() {
		note, err = h.notesService.GetNote(c.Request.Context(), c.Param("id"))
	} else {
		note, err = h.notesService.PatchNote(c.Request.Context(), c.Param("id"), usecase.NoteChanges{
			Title:       patch.Title,
			Content:     patch.Content,
			Tags:        patch.Tags,
			Attachments: patch.Attachments,
		})
	}
	if err != nil {
		h.respondError(c, err, true)
		return
	}

	utils.Success(c, dto.ToNoteResponse(note))
}

func (h *NoteHandler) DeleteNote(c *gin.Context) {
	noteID := c.Param("id")
	if err := h.notesService.DeleteNote(c.Request.Context(), noteID); err != nil {
		h.respondError(c, err, false)
		return
	}

	utils.Success(c, gin.H{"message": "Note deleted successfully", "id": noteID})
}

// ResetNotes empties the store. Only routed when reset is enabled.
func (h *NoteHandler) ResetNotes(c *gin.Context) {
	deleted, err := h.notesService.ResetNotes(c.Request.Context())
	if err != nil {
		h.respondError(c, err, false)
		return
	}

	log.Ctx(c.Request.Context()).Info().Int64("deleted", deleted).Msg("notes reset")
	utils.Success(c, dto.ResetResponse{Deleted: deleted})
}

// VerbDisabled answers an update verb the service was configured not to accept.
func (h *NoteHandler) VerbDisabled(c *gin.Context) {
	utils.MethodNotAllowed(c, c.Request.Method+" is not supported for notes")
}
