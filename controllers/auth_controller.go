package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"frontdesk-backend/middleware"
	"frontdesk-backend/services"
)

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthController struct {
	Admins    *services.AdminService
	JWTSecret string
}

func NewAuthController(admins *services.AdminService, jwtSecret string) *AuthController {
	return &AuthController{Admins: admins, JWTSecret: jwtSecret}
}

// POST /api/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload"})
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "email and password required"})
		return
	}

	admin, err := ctrl.Admins.Authenticate(payload.Email, payload.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid credentials"})
		return
	}

	now := time.Now().UTC()
	claims := middleware.Claims{
		AdminID:  admin.ID,
		BranchID: admin.BranchID,
		Email:    admin.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(12 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ctrl.JWTSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token":     token,
			"full_name": admin.FullName,
			"branch_id": admin.BranchID,
		},
	})
}
