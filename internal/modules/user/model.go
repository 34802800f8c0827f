// README: User aggregate with reviewer profile fields.
package user

import (
	"time"

	"medreview/internal/types"
)

// TimeRange is a clinician availability window within a weekday, "HH:MM" local.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklySlots maps weekday name ("monday".."sunday") to availability windows.
type WeeklySlots map[string][]TimeRange

type User struct {
	ID           types.ID
	Name         string
	Email        string
	PasswordHash string
	Role         types.Role
	IsActive     bool

	// Reviewer-only profile.
	Specialization *string
	LicenseNumber  *string
	HourlyRate     *types.Money
	AvailableSlots WeeklySlots

	CreatedAt time.Time
}
