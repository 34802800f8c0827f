// README: Registration, login, and account handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medreview/internal/http/middleware"
	"medreview/internal/modules/user"
	"medreview/internal/types"
)

type AuthHandler struct {
	users *user.Service
}

func NewAuthHandler(svc *user.Service) *AuthHandler {
	return &AuthHandler{users: svc}
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`

	Specialization *string          `json:"specialization,omitempty"`
	LicenseNumber  *string          `json:"license_number,omitempty"`
	HourlyRate     *types.Money     `json:"hourly_rate,omitempty"`
	AvailableSlots user.WeeklySlots `json:"available_slots,omitempty"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	role := types.Role(req.Role)
	if role == "" {
		role = types.RoleCustomer
	}
	// Admin accounts are provisioned out of band, never self-registered.
	if role == types.RoleAdmin {
		writeError(c, http.StatusForbidden, "cannot self-register as admin")
		return
	}
	id, err := h.users.Register(c.Request.Context(), user.RegisterCommand{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Role:           role,
		Specialization: req.Specialization,
		LicenseNumber:  req.LicenseNumber,
		HourlyRate:     req.HourlyRate,
		AvailableSlots: req.AvailableSlots,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"user_id": id})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	token, u, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"token": token, "user": userDTO(u)})
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, userDTO(u))
}

type profileReq struct {
	Specialization *string          `json:"specialization,omitempty"`
	LicenseNumber  *string          `json:"license_number,omitempty"`
	HourlyRate     *types.Money     `json:"hourly_rate,omitempty"`
	AvailableSlots user.WeeklySlots `json:"available_slots,omitempty"`
}

func (h *AuthHandler) UpdateReviewerProfile(c *gin.Context) {
	var req profileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.users.UpdateReviewerProfile(c.Request.Context(), user.ProfileCommand{
		UserID:         middleware.CallerUID(c),
		Specialization: req.Specialization,
		LicenseNumber:  req.LicenseNumber,
		HourlyRate:     req.HourlyRate,
		AvailableSlots: req.AvailableSlots,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "updated"})
}

func (h *AuthHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *AuthHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *AuthHandler) setActive(c *gin.Context, active bool) {
	id := types.ID(c.Param("id"))
	if err := h.users.SetActive(c.Request.Context(), id, active); err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"is_active": active})
}

func userDTO(u *user.User) gin.H {
	dto := gin.H{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"role":      u.Role,
		"is_active": u.IsActive,
	}
	if u.Role == types.RoleReviewer {
		dto["specialization"] = u.Specialization
		dto["license_number"] = u.LicenseNumber
		dto["hourly_rate"] = u.HourlyRate
		dto["available_slots"] = u.AvailableSlots
	}
	return dto
}
