package authapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradeguard/platform/services/authentication-service/internal/app/auth"
	"github.com/tradeguard/platform/services/authentication-service/internal/app/commands"
	"github.com/tradeguard/platform/services/authentication-service/internal/domain/user"
	"github.com/tradeguard/platform/shared/apperrors"
	"github.com/tradeguard/platform/shared/middleware"
)

// RegisterRoutes mounts the /users endpoints on rg.
func (m *Module) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/authenticate", middleware.WrapHandler(m.authenticate))
	rg.POST("/register", middleware.WrapHandler(m.registerUser))
	rg.PUT("/edit-profile", m.RequireToken(), middleware.WrapHandler(m.editUserProfile))
}

type authenticateRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the body of a successful /users/authenticate.
type LoginResponse struct {
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	Token          string    `json:"token"`
	UserID         uuid.UUID `json:"user_id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phoneNumber"`
	CompanyName    string    `json:"companyName"`
	UserRole       string    `json:"userRole"`
	RegNumber      string    `json:"regNumber"`
	PrimaryCountry string    `json:"primaryCountry"`
	ShippingVolume string    `json:"shippingVolume"`
	CreatedAt      time.Time `json:"created_at"`
}

func (m *Module) authenticate(c *gin.Context) error {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return apperrors.ErrUnauthorized("Invalid credentials")
	}

	sess, err := m.login.Handle(c.Request.Context(), commands.LoginParams{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		return auth.MapLoginError(err)
	}

	u := sess.User
	c.JSON(http.StatusOK, LoginResponse{
		Success:        true,
		Message:        "Authentication successful",
		Token:          sess.AccessToken,
		UserID:         u.UserID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.UserEmail,
		PhoneNumber:    u.PhoneNumber,
		CompanyName:    u.CompanyName,
		UserRole:       string(u.Role),
		RegNumber:      u.RegNumber,
		PrimaryCountry: u.PrimaryCountry,
		ShippingVolume: string(u.ShippingVolume),
		CreatedAt:      u.CreatedAt,
	})
	return nil
}

type registerRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phoneNumber"`
	CompanyName    string `json:"companyName"`
	UserRole       string `json:"userRole"`
	CompanyType    string `json:"companyType"`
	RegNumber      string `json:"regNumber"`
	PrimaryCountry string `json:"primaryCountry"`
	ShippingVolume string `json:"shippingVolume"`
	Password       string `json:"password"`
}

func (m *Module) registerUser(c *gin.Context) error {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return apperrors.ErrBadRequest("Invalid request body")
	}

	id, err := m.register.Handle(c.Request.Context(), commands.RegisterUserParams{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		PhoneNumber:    req.PhoneNumber,
		CompanyName:    req.CompanyName,
		UserRole:       req.UserRole,
		CompanyType:    req.CompanyType,
		RegNumber:      req.RegNumber,
		PrimaryCountry: req.PrimaryCountry,
		ShippingVolume: req.ShippingVolume,
		Password:       req.Password,
		IPAddress:      c.ClientIP(),
	})
	if err != nil {
		return auth.MapError(err)
	}

	m.logger.WithContext(c.Request.Context()).Info("User registered", "userId", id)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user_id": id,
	})
	return nil
}

type editProfileRequest struct {
	UserID          string  `json:"user_id" binding:"required"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	PhoneNumber     *string `json:"phoneNumber"`
	CompanyName     *string `json:"companyName"`
	CompanyType     *string `json:"companyType"`
	RegNumber       *string `json:"regNumber"`
	PrimaryCountry  *string `json:"primaryCountry"`
	ShippingVolume  *string `json:"shippingVolume"`
	TwoFA           *bool   `json:"twoFA"`
	Notifs          *bool   `json:"notifs"`
	Alerts          *bool   `json:"alerts"`
	NewPassword     string  `json:"new_password"`
	CurrentPassword string  `json:"current_password"`
}

func (m *Module) editUserProfile(c *gin.Context) error {
	principal, ok := PrincipalFrom(c)
	if !ok {
		return apperrors.ErrForbidden("Token is missing")
	}

	var req editProfileRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		return appErr
	}
	target, err := uuid.Parse(req.UserID)
	if err != nil {
		return apperrors.ErrValidation("Invalid user_id")
	}

	err = m.editProfile.Handle(c.Request.Context(), commands.EditProfileParams{
		ActorID:  principal.UserID,
		TargetID: target,
		Update: user.ProfileUpdate{
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			PhoneNumber:    req.PhoneNumber,
			CompanyName:    req.CompanyName,
			CompanyType:    req.CompanyType,
			RegNumber:      req.RegNumber,
			PrimaryCountry: req.PrimaryCountry,
			ShippingVolume: req.ShippingVolume,
			TwoFA:          req.TwoFA,
			Notifs:         req.Notifs,
			Alerts:         req.Alerts,
		},
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		IPAddress:       c.ClientIP(),
	})
	if err != nil {
		return auth.MapError(err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Profile updated successfully"})
	return nil
}
