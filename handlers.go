package main

import (
	"net/http"
	"strings"

	"docman/models"
	"docman/pkg/email"
	"docman/pkg/token"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const refreshCookieName = "refresh_token"

// app bundles the dependencies handlers need. Config is injected here once;
// nothing on the request path reads ambient state.
type app struct {
	cfg    *Config
	issuer *token.Issuer
	mailer email.Sender
}

func setupRoutes(r *gin.Engine, a *app) {
	auth := r.Group("/auth")
	auth.POST("/register", a.registerHandler)
	auth.POST("/login", a.loginHandler)
	auth.GET("/refresh", a.refreshHandler)
	auth.POST("/logout", a.logoutHandler)
	auth.POST("/forgot-password", a.forgotPasswordHandler)
	auth.POST("/reset-password", a.resetPasswordHandler)

	protected := r.Group("")
	protected.Use(authRequired(a.issuer))
	protected.GET("/me", meHandler)
	protected.GET("/docs", requireRole(models.RoleViewer), listDocumentsHandler)
	protected.POST("/docs", requireRole(models.RoleEditor), createDocumentHandler)
	protected.DELETE("/docs/:id", requireRole(models.RoleAdmin), deleteDocumentHandler)
	protected.GET("/admin/stats", requireRole(models.RoleSuperadmin), statsHandler)
}

// setRefreshCookie installs the refresh token as an HTTP-only strict-samesite
// cookie. Secure is only enforced in production so local HTTP still works.
func (a *app) setRefreshCookie(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, value, int(a.cfg.RefreshTokenTTL.Seconds()), "/", "", a.cfg.production(), true)
}

func (a *app) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", a.cfg.production(), true)
}

// issueSession mints the access/refresh pair for user, sets the refresh
// cookie and writes the response.
func (a *app) issueSession(c *gin.Context, user *models.User, status int, includeUser bool) {
	access, _, err := a.issuer.IssueAccess(user.ID, string(user.Role))
	if err != nil {
		httpError(c, err)
		return
	}
	refresh, err := startSession(user)
	if err != nil {
		httpError(c, err)
		return
	}
	a.setRefreshCookie(c, refresh)
	if includeUser {
		c.JSON(status, gin.H{"token": access, "user": user})
		return
	}
	c.JSON(status, gin.H{"token": access})
}

func (a *app) registerHandler(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		FirstName string `json:"firstname" binding:"required"`
		LastName  string `json:"lastname" binding:"required"`
		Username  string `json:"username" binding:"required,min=3"`
		Password  string `json:"password" binding:"required,min=8"`
		Role      string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErrors(err)})
		return
	}
	user, err := RegisterUser(RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		httpError(c, err)
		return
	}
	a.issueSession(c, user, http.StatusCreated, true)
}

func (a *app) loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErrors(err)})
		return
	}
	user, err := Authenticate(req.Email, req.Password)
	if err != nil {
		httpError(c, err)
		return
	}
	a.issueSession(c, user, http.StatusOK, true)
}

// refreshHandler exchanges the refresh cookie for a new access token and a
// rotated cookie. Presenting a refresh token succeeds exactly once.
func (a *app) refreshHandler(c *gin.Context) {
	plaintext, err := c.Cookie(refreshCookieName)
	if err != nil || plaintext == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	access, newRefresh, _, err := rotateRefreshToken(a.issuer, plaintext)
	if err != nil {
		httpError(c, err)
		return
	}
	a.setRefreshCookie(c, newRefresh)
	c.JSON(http.StatusOK, gin.H{"token": access})
}

// logoutHandler ends the session: the presented access token (if any) goes
// on the revocation ledger for its remaining lifetime, the stored refresh
// hash is cleared and the cookie dropped. Always answers 200.
func (a *app) logoutHandler(c *gin.Context) {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if claims, err := a.issuer.ParseAccess(strings.TrimPrefix(h, "Bearer ")); err == nil {
			uid, _ := claims.UserID()
			if err := revokeAccessToken(claims.ID, uid, claims.ExpiresAt.Time); err != nil {
				logger.Warn("failed to revoke access token on logout", zap.Error(err))
			}
		}
	}
	if plaintext, err := c.Cookie(refreshCookieName); err == nil {
		clearRefreshToken(plaintext)
	}
	a.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (a *app) forgotPasswordHandler(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErrors(err)})
		return
	}

	const generic = "If that account exists, a reset link has been sent."

	var user models.User
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		if a.cfg.RevealUnknownEmail {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": generic})
		return
	}

	plain, err := createResetToken(&user)
	if err != nil {
		httpError(c, err)
		return
	}
	if err := a.mailer.SendPasswordReset(c.Request.Context(), user.Email, plain); err != nil {
		// delivery state stays server-side; the client answer is unchanged
		logger.Error("failed to send reset email", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"message": generic})
}

func (a *app) resetPasswordHandler(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErrors(err)})
		return
	}
	if err := resetPassword(req.Token, req.Password); err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func meHandler(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// listDocumentsHandler lists recent documents for the caller (admins see all)
func listDocumentsHandler(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	q := db.Model(&models.Document{})
	if !user.Role.AtLeast(models.RoleAdmin) {
		q = q.Where("owner_id = ?", user.ID)
	}
	var docs []models.Document
	if err := q.Order("id desc").Limit(200).Find(&docs).Error; err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func createDocumentHandler(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	var req struct {
		Title    string `json:"title" binding:"required"`
		Content  string `json:"content"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErrors(err)})
		return
	}
	doc := models.Document{Title: req.Title, Content: req.Content, Category: req.Category, OwnerID: user.ID}
	if err := db.Create(&doc).Error; err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": doc.ID})
}

func deleteDocumentHandler(c *gin.Context) {
	var doc models.Document
	if err := db.First(&doc, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err := db.Delete(&doc).Error; err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func statsHandler(c *gin.Context) {
	var users, docs, revoked int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Document{}).Count(&docs)
	db.Model(&models.RevokedToken{}).Count(&revoked)
	c.JSON(http.StatusOK, gin.H{"users": users, "documents": docs, "revoked_tokens": revoked})
}
