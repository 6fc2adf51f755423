package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
	"github.com/kphotone-reward/backend/server/response"
)

func (s *Server) handleRequestRedemption() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.HandleErrors(c, errs.ErrUnauthorized)
			return
		}
		var request models.RedemptionRequest
		if err := decode(c, &request); err != nil {
			response.HandleErrors(c, err)
			return
		}
		redemption, err := s.RedemptionService.RequestRedemption(c.Request.Context(), userID, request.AssignmentIDs)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "redemption request submitted", http.StatusCreated, redemption, nil)
	}
}

func (s *Server) handleGetUserRedemptions() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.HandleErrors(c, errs.ErrUnauthorized)
			return
		}
		redemptions, err := s.RedemptionService.GetUserRedemptions(c.Request.Context(), userID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "redemption requests retrieved successfully", http.StatusOK, redemptions, nil)
	}
}

func (s *Server) handleGetAllRedemptions() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := models.RedemptionStatus(c.Query("status"))
		redemptions, err := s.RedemptionService.GetAllRedemptions(c.Request.Context(), status)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "redemption requests retrieved successfully", http.StatusOK, redemptions, nil)
	}
}

// handleGetRedemptionStats returns counts for the caller, or for everyone
// when the caller is an admin.
func (s *Server) handleGetRedemptionStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			response.HandleErrors(c, errs.ErrUnauthorized)
			return
		}
		var scope *uint
		if !user.IsAdmin() {
			scope = &user.ID
		}
		stats, err := s.RedemptionService.GetRedemptionStats(c.Request.Context(), scope)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "redemption stats retrieved successfully", http.StatusOK, stats, nil)
	}
}

func (s *Server) handleApproveRedemption() gin.HandlerFunc {
	return func(c *gin.Context) {
		redemptionID, err := paramID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		adminID, _ := currentUserID(c)
		redemption, err := s.RedemptionService.ApproveRedemption(c.Request.Context(), redemptionID, adminID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "redemption approved", http.StatusOK, redemption, nil)
	}
}

func (s *Server) handleRejectRedemption() gin.HandlerFunc {
	return func(c *gin.Context) {
		redemptionID, err := paramID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		adminID, _ := currentUserID(c)
		redemption, err := s.RedemptionService.RejectRedemption(c.Request.Context(), redemptionID, adminID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "redemption rejected", http.StatusOK, redemption, nil)
	}
}
