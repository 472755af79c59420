package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jmcardona/atalaya/backend/internal/api/middleware"
	"github.com/jmcardona/atalaya/backend/internal/services"
)

// CommentsHandler serves the visitor comment board.
type CommentsHandler struct {
	comments *services.CommentService
}

func NewCommentsHandler(comments *services.CommentService) *CommentsHandler {
	return &CommentsHandler{comments: comments}
}

// List returns approved comments, newest first.
func (h *CommentsHandler) List(c *gin.Context) {
	items, err := h.comments.List(100)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudieron cargar los comentarios"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comentarios": items})
}

type createCommentRequest struct {
	Body string `json:"texto" binding:"required"`
}

// Create stores a comment for the authenticated user.
func (h *CommentsHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Debes iniciar sesión para comentar"})
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El comentario no puede estar vacío"})
		return
	}

	comment, err := h.comments.Create(user, req.Body)
	if errors.Is(err, services.ErrEmptyComment) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El comentario no puede estar vacío"})
		return
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo guardar el comentario"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comentario": comment})
}
