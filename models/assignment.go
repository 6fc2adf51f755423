package models

import "time"

// Assignment links one user to one survey. Stored as user_surveys.
type Assignment struct {
	Model
	UserID      uint             `json:"user_id" gorm:"not null;uniqueIndex:idx_user_surveys_user_survey"`
	SurveyID    uint             `json:"survey_id" gorm:"not null;uniqueIndex:idx_user_surveys_user_survey;index"`
	Status      AssignmentStatus `json:"status" gorm:"type:varchar(16);not null;default:'sent';index"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	RewardedAt  *time.Time       `json:"rewarded_at,omitempty"`
	Survey      *Survey          `json:"survey,omitempty" gorm:"foreignKey:SurveyID"`
}

func (Assignment) TableName() string {
	return "user_surveys"
}

type AssignRequest struct {
	UserID   uint `json:"user_id" binding:"required"`
	SurveyID uint `json:"survey_id" binding:"required"`
}

type AssignManyRequest struct {
	UserIDs  []uint `json:"user_ids" binding:"required,min=1"`
	SurveyID uint   `json:"survey_id" binding:"required"`
}

type AssignManyResult struct {
	Assigned []Assignment `json:"assignments"`
	Skipped  []uint       `json:"skipped"`
}

type CompleteSurveyRequest struct {
	SurveyID uint `json:"survey_id" binding:"required"`
}

// RewardResult is returned after an assignment has been credited.
type RewardResult struct {
	Assignment  Assignment `json:"assignment"`
	PointsAdded int        `json:"points_added"`
	Balance     int        `json:"balance"`
}
