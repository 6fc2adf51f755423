package models

import "time"

const (
	ReasonSurveyReward = "survey_reward"
	ReasonRedemption   = "redemption"
	ReasonAdminGrant   = "admin_grant"
)

// PointTransaction is one append-only entry of the points journal.
// The sum of Delta for a user equals User.Points.
type PointTransaction struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	Delta       int       `json:"delta" gorm:"not null"`
	Reason      string    `json:"reason" gorm:"type:varchar(32);not null"`
	ReferenceID uint      `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type AdminStats struct {
	TotalUsers             int64 `json:"total_users"`
	ActiveUsers            int64 `json:"active_users"`
	TotalSurveys           int64 `json:"total_surveys"`
	TotalAssignments       int64 `json:"total_assignments"`
	TotalPointsDistributed int64 `json:"total_points_distributed"`
	TotalPointsOutstanding int64 `json:"total_points_outstanding"`
}
