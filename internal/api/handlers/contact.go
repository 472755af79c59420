package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jmcardona/atalaya/backend/internal/services"
)

// ContactHandler receives contact-form submissions and relays them by mail.
type ContactHandler struct {
	mail *services.MailService
}

func NewContactHandler(mail *services.MailService) *ContactHandler {
	return &ContactHandler{mail: mail}
}

type contactRequest struct {
	Name    string `json:"nombre" form:"nombre" binding:"required"`
	Email   string `json:"email" form:"email" binding:"required,email"`
	Subject string `json:"asunto" form:"asunto"`
	Message string `json:"mensaje" form:"mensaje" binding:"required"`
}

// Send validates the submission and delivers it over SMTP.
func (h *ContactHandler) Send(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Faltan campos obligatorios en el formulario"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El mensaje no puede estar vacío"})
		return
	}

	err := h.mail.SendContact(services.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Message,
	})
	if errors.Is(err, services.ErrMailNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "El servicio de correo no está disponible"})
		return
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo enviar el mensaje"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Mensaje enviado correctamente"})
}
