package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
	"github.com/kphotone-reward/backend/server/response"
	"github.com/kphotone-reward/backend/services/utils"
)

func (s *Server) handleCreateSurvey() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.CreateSurveyRequest
		if err := decode(c, &request); err != nil {
			response.HandleErrors(c, err)
			return
		}
		survey, err := s.SurveyService.CreateSurvey(c.Request.Context(), &request)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "survey created successfully", http.StatusCreated, survey, nil)
	}
}

func (s *Server) handleUpdateSurvey() gin.HandlerFunc {
	return func(c *gin.Context) {
		surveyID, err := paramID(c, "surveyID")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		var request models.UpdateSurveyRequest
		if err := decode(c, &request); err != nil {
			response.HandleErrors(c, err)
			return
		}
		survey, err := s.SurveyService.UpdateSurvey(c.Request.Context(), surveyID, &request)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "survey updated successfully", http.StatusOK, survey, nil)
	}
}

// handleSurveyTransition serves pause, resume and check-expiry, which only
// differ in the service call.
func (s *Server) handleSurveyTransition(message string, transition func(ctx context.Context, surveyID uint) (*models.Survey, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		surveyID, err := paramID(c, "surveyID")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		survey, err := transition(c.Request.Context(), surveyID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, message, http.StatusOK, survey, nil)
	}
}

func (s *Server) handleListSurveys() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := utils.Paginate(c.Query("page"), c.Query("limit"))
		surveys, total, err := s.SurveyService.ListSurveys(c.Request.Context(), models.SurveyFilter{Page: page, Limit: limit})
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "surveys retrieved successfully", http.StatusOK, gin.H{
			"surveys": surveys,
			"total":   total,
			"page":    page,
			"limit":   limit,
		}, nil)
	}
}

func (s *Server) handleGetSurveyUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		surveyID, err := paramID(c, "surveyID")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		users, err := s.RewardService.GetSurveyUsers(c.Request.Context(), surveyID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "survey users retrieved successfully", http.StatusOK, users, nil)
	}
}

func (s *Server) handleAssignSurvey() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.AssignRequest
		if err := decode(c, &request); err != nil {
			response.HandleErrors(c, err)
			return
		}
		assignment, err := s.RewardService.AssignSurvey(c.Request.Context(), request.UserID, request.SurveyID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "survey assigned successfully", http.StatusCreated, assignment, nil)
	}
}

func (s *Server) handleAssignSurveyToUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.AssignManyRequest
		if err := decode(c, &request); err != nil {
			response.HandleErrors(c, err)
			return
		}
		result, err := s.RewardService.AssignSurveyToUsers(c.Request.Context(), request.UserIDs, request.SurveyID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "survey assigned successfully", http.StatusCreated, result, nil)
	}
}

// handleAddPoints lets an admin credit a user's assignment directly.
func (s *Server) handleAddPoints() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.AssignRequest
		if err := decode(c, &request); err != nil {
			response.HandleErrors(c, err)
			return
		}
		result, err := s.RewardService.AddPoints(c.Request.Context(), request.UserID, request.SurveyID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "points added successfully", http.StatusOK, result, nil)
	}
}

func (s *Server) handleCompleteSurvey() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.HandleErrors(c, errs.ErrUnauthorized)
			return
		}
		var request models.CompleteSurveyRequest
		if err := decode(c, &request); err != nil {
			response.HandleErrors(c, err)
			return
		}
		result, err := s.RewardService.CompleteSurvey(c.Request.Context(), userID, request.SurveyID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "survey completed successfully", http.StatusOK, result, nil)
	}
}

func (s *Server) handleGetAssignedSurveys() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.HandleErrors(c, errs.ErrUnauthorized)
			return
		}
		surveys, err := s.RewardService.GetAssignedSurveys(c.Request.Context(), userID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "assigned surveys retrieved successfully", http.StatusOK, surveys, nil)
	}
}

func (s *Server) handleGetCompletedSurveys() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.HandleErrors(c, errs.ErrUnauthorized)
			return
		}
		surveys, err := s.RewardService.GetCompletedSurveys(c.Request.Context(), userID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "completed surveys retrieved successfully", http.StatusOK, surveys, nil)
	}
}
