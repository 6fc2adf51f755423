package models

import "time"

// Survey is an externally hosted survey users are paid points to complete.
type Survey struct {
	Model
	SurveyCode   string       `json:"survey_code" gorm:"uniqueIndex;not null"`
	Title        string       `json:"title" gorm:"not null"`
	SurveyLink   string       `json:"survey_link" gorm:"not null"`
	RewardPoints int          `json:"reward_points" gorm:"not null;check:reward_points > 0"`
	StartDate    time.Time    `json:"start_date" gorm:"not null"`
	EndDate      time.Time    `json:"end_date" gorm:"not null"`
	Status       SurveyStatus `json:"status" gorm:"type:varchar(16);not null;default:'active';index"`
}

// IsExpiredAt reports whether the survey window has closed at now.
func (s *Survey) IsExpiredAt(now time.Time) bool {
	return s.Status == SurveyExpired || now.After(s.EndDate)
}

// EffectiveStatus folds the time based expiry into the stored status.
func (s *Survey) EffectiveStatus(now time.Time) SurveyStatus {
	if s.IsExpiredAt(now) {
		return SurveyExpired
	}
	return s.Status
}

// AcceptsCompletions reports whether users may complete the survey themselves at now.
func (s *Survey) AcceptsCompletions(now time.Time) bool {
	return s.EffectiveStatus(now) == SurveyActive && !now.Before(s.StartDate)
}

type CreateSurveyRequest struct {
	SurveyCode   string    `json:"survey_code" conform:"trim,upper"`
	Title        string    `json:"title" conform:"trim" binding:"required"`
	SurveyLink   string    `json:"survey_link" conform:"trim" binding:"required,url"`
	RewardPoints int       `json:"reward_points" binding:"required,gte=1"`
	StartDate    time.Time `json:"start_date" binding:"required"`
	EndDate      time.Time `json:"end_date" binding:"required"`
}

type UpdateSurveyRequest struct {
	Title        *string    `json:"title"`
	SurveyLink   *string    `json:"survey_link" binding:"omitempty,url"`
	RewardPoints *int       `json:"reward_points" binding:"omitempty,gte=1"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

type SurveyFilter struct {
	Page  int
	Limit int
}

// SurveyWithAssignment is a survey as seen by an assigned user.
type SurveyWithAssignment struct {
	Survey
	AssignmentID     uint             `json:"assignment_id"`
	AssignmentStatus AssignmentStatus `json:"assignment_status"`
	RewardedAt       *time.Time       `json:"rewarded_at,omitempty"`
}

// AssignedUser is a user as seen from a survey's assignment list.
type AssignedUser struct {
	UserID           uint             `json:"user_id"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	AssignmentStatus AssignmentStatus `json:"assignment_status"`
}
