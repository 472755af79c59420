package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jmcardona/atalaya/backend/internal/services"
)

const sessionCookie = "atalaya_session"

// AuthHandler serves account registration, login and the OAuth entry point.
type AuthHandler struct {
	auth       *services.AuthService
	production bool
}

func NewAuthHandler(auth *services.AuthService, production bool) *AuthHandler {
	return &AuthHandler{auth: auth, production: production}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"nombre" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register creates a local account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de registro inválidos"})
		return
	}

	user, err := h.auth.Register(req.Email, req.Name, req.Password)
	if errors.Is(err, services.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "Ese correo ya está registrado"})
		return
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo crear la cuenta"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"usuario": gin.H{"email": user.Email, "nombre": user.Name}})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Credenciales incompletas"})
		return
	}

	token, user, err := h.auth.Login(req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Correo o contraseña incorrectos"})
		return
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo iniciar sesión"})
		return
	}

	h.setSession(c, token)
	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"usuario": gin.H{"email": user.Email, "nombre": user.Name},
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", h.production, true)
	c.JSON(http.StatusOK, gin.H{"message": "Sesión cerrada"})
}

// GoogleEntry redirects the browser to the provider's consent screen. The
// state value is a fresh uuid echoed back on the callback.
func (h *AuthHandler) GoogleEntry(c *gin.Context) {
	authURL := h.auth.GoogleAuthURL(uuid.NewString())
	if authURL == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "El inicio de sesión con Google no está disponible"})
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

func (h *AuthHandler) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, 24*60*60, "/", "", h.production, true)
}
