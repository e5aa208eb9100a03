package note

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"webnotes/internal/middleware"
)

type NoteController struct {
	service NoteServiceInterface
}

func NewNoteController(service NoteServiceInterface) *NoteController {
	return &NoteController{
		service: service,
	}
}

// NotesPage renders the authenticated user's note list.
func (nc *NoteController) NotesPage(c *gin.Context) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	notes, err := nc.service.List(c.Request.Context(), identity.UserID)
	if err != nil {
		logrus.WithError(err).Error("Failed to list notes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notes"})
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"notes":    notes,
		"username": identity.Username,
	})
}

// CreateNote inserts one note per supplied body under a shared title.
func (nc *NoteController) CreateNote(c *gin.Context) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req struct {
		Title string   `json:"title" binding:"required"`
		Text  []string `json:"text" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	ids, err := nc.service.Create(c.Request.Context(), identity.UserID, req.Title, req.Text)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Title and at least one text body are required"})
			return
		}
		logrus.WithError(err).Error("Failed to create note")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create note"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Note created successfully",
		"note_ids": ids,
	})
}

// UpdateNote applies a partial update to an owned note.
func (nc *NoteController) UpdateNote(c *gin.Context) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid note ID"})
		return
	}

	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := nc.service.Update(c.Request.Context(), id, identity.UserID, patch); err != nil {
		switch {
		case errors.Is(err, ErrNoteNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
		case errors.Is(err, ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this note"})
		default:
			logrus.WithError(err).Error("Failed to update note")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update note"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note updated successfully"})
}

// DeleteNote removes an owned note. Foreign notes answer 404, identical to
// absent ones, so existence is not leaked to non-owners.
func (nc *NoteController) DeleteNote(c *gin.Context) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid note ID"})
		return
	}

	if err := nc.service.Delete(c.Request.Context(), id, identity.UserID); err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
			return
		}
		logrus.WithError(err).Error("Failed to delete note")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete note"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}

// SearchPage renders the notes whose title contains the query substring.
func (nc *NoteController) SearchPage(c *gin.Context) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	query := c.Query("query")

	notes, err := nc.service.Search(c.Request.Context(), identity.UserID, query)
	if err != nil {
		logrus.WithError(err).Error("Failed to search notes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search notes"})
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"notes":    notes,
		"username": identity.Username,
		"query":    query,
	})
}
