package models

import (
	"time"

	"github.com/google/uuid"
)

// Redemption is a request to turn earned points into a payout.
// Points is captured when the request is made and never recomputed.
type Redemption struct {
	Model
	Reference   uuid.UUID        `json:"reference" gorm:"type:uuid;uniqueIndex;not null"`
	UserID      uint             `json:"user_id" gorm:"not null;index"`
	Points      int              `json:"points" gorm:"not null;check:redemption_points_positive,points > 0"`
	Status      RedemptionStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	ProcessedAt *time.Time       `json:"processed_at,omitempty"`
	ProcessedBy *uint            `json:"processed_by,omitempty"`
	Items       []RedemptionItem `json:"items" gorm:"foreignKey:RedemptionID"`
	User        *User            `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// RedemptionItem records one rewarded assignment cited by a redemption
// together with the survey points it contributed at request time.
type RedemptionItem struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	RedemptionID uint `json:"redemption_id" gorm:"not null;index"`
	AssignmentID uint `json:"assignment_id" gorm:"not null;index"`
	SurveyID     uint `json:"survey_id" gorm:"not null"`
	Points       int  `json:"points" gorm:"not null"`
}

type RedemptionRequest struct {
	AssignmentIDs []uint `json:"assignment_ids" binding:"required,min=1"`
}

type RedemptionStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}
