package models

import (
	"database/sql/driver"
	"fmt"
)

// AssignmentStatus is the lifecycle of a user's survey assignment.
type AssignmentStatus string

const (
	AssignmentSent AssignmentStatus = "sent"
	// AssignmentCompleted is declared for schema compatibility; no operation moves into it yet.
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentRewarded  AssignmentStatus = "rewarded"
)

var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentSent:      {AssignmentCompleted, AssignmentRewarded},
	AssignmentCompleted: {AssignmentRewarded},
	AssignmentRewarded:  nil,
}

func (s AssignmentStatus) Valid() bool {
	_, ok := assignmentTransitions[s]
	return ok
}

func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	for _, to := range assignmentTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

func (s AssignmentStatus) IsTerminal() bool {
	return s.Valid() && len(assignmentTransitions[s]) == 0
}

// AssignmentSourcesOf lists every state allowed to move into next.
func AssignmentSourcesOf(next AssignmentStatus) []AssignmentStatus {
	var from []AssignmentStatus
	for _, s := range []AssignmentStatus{AssignmentSent, AssignmentCompleted, AssignmentRewarded} {
		if s.CanTransitionTo(next) {
			from = append(from, s)
		}
	}
	return from
}

func (s *AssignmentStatus) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return err
	}
	*s = AssignmentStatus(str)
	if !s.Valid() {
		return fmt.Errorf("invalid assignment status %q", str)
	}
	return nil
}

func (s AssignmentStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// RedemptionStatus is the lifecycle of a points redemption request.
type RedemptionStatus string

const (
	RedemptionPending  RedemptionStatus = "pending"
	RedemptionApproved RedemptionStatus = "approved"
	RedemptionRejected RedemptionStatus = "rejected"
)

var redemptionTransitions = map[RedemptionStatus][]RedemptionStatus{
	RedemptionPending:  {RedemptionApproved, RedemptionRejected},
	RedemptionApproved: nil,
	RedemptionRejected: nil,
}

func (s RedemptionStatus) Valid() bool {
	_, ok := redemptionTransitions[s]
	return ok
}

func (s RedemptionStatus) CanTransitionTo(next RedemptionStatus) bool {
	for _, to := range redemptionTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

func (s RedemptionStatus) IsTerminal() bool {
	return s.Valid() && len(redemptionTransitions[s]) == 0
}

func (s *RedemptionStatus) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return err
	}
	*s = RedemptionStatus(str)
	if !s.Valid() {
		return fmt.Errorf("invalid redemption status %q", str)
	}
	return nil
}

func (s RedemptionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// SurveyStatus is the admin or time driven state of a survey.
type SurveyStatus string

const (
	SurveyActive  SurveyStatus = "active"
	SurveyPaused  SurveyStatus = "paused"
	SurveyExpired SurveyStatus = "expired"
)

var surveyTransitions = map[SurveyStatus][]SurveyStatus{
	SurveyActive:  {SurveyPaused, SurveyExpired},
	SurveyPaused:  {SurveyActive, SurveyExpired},
	SurveyExpired: nil,
}

func (s SurveyStatus) Valid() bool {
	_, ok := surveyTransitions[s]
	return ok
}

func (s SurveyStatus) CanTransitionTo(next SurveyStatus) bool {
	for _, to := range surveyTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

func (s *SurveyStatus) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return err
	}
	*s = SurveyStatus(str)
	if !s.Valid() {
		return fmt.Errorf("invalid survey status %q", str)
	}
	return nil
}

func (s SurveyStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func scanString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into status", value)
	}
}
