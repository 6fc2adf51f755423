package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	errs "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
	"github.com/kphotone-reward/backend/server/response"
	"github.com/kphotone-reward/backend/services/utils"
)

func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.SignupRequest
		if err := decode(c, &request); err != nil {
			response.HandleErrors(c, err)
			return
		}
		user, err := s.AuthService.SignupUser(c.Request.Context(), &request)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "signup successful", http.StatusCreated, user.Response(), nil)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginRequest models.LoginRequest
		if err := decode(c, &loginRequest); err != nil {
			response.HandleErrors(c, err)
			return
		}
		userResponse, err := s.AuthService.LoginUser(c.Request.Context(), &loginRequest)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, userResponse, nil)
	}
}

func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.HandleErrors(c, errs.ErrUnauthorized)
			return
		}
		user, err := s.AuthService.GetUserProfile(c.Request.Context(), userID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "user details retrieved successfully", http.StatusOK, user.Response(), nil)
	}
}

func (s *Server) handleGetAllUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := utils.Paginate(c.Query("page"), c.Query("limit"))
		filter := models.UserFilter{Page: page, Limit: limit}
		if raw := c.Query("is_active"); raw != "" {
			active, err := strconv.ParseBool(raw)
			if err != nil {
				response.HandleErrors(c, errs.ErrBadRequest.WithMessage("is_active must be true or false"))
				return
			}
			filter.IsActive = &active
		}

		users, total, err := s.AuthService.ListUsers(c.Request.Context(), filter)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		out := make([]models.UserResponse, 0, len(users))
		for i := range users {
			out = append(out, users[i].Response())
		}
		response.JSON(c, "users retrieved successfully", http.StatusOK, gin.H{
			"users": out,
			"total": total,
			"page":  page,
			"limit": limit,
		}, nil)
	}
}

func (s *Server) handleUpdateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := paramID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		var request models.UpdateUserRequest
		if err := decode(c, &request); err != nil {
			response.HandleErrors(c, err)
			return
		}
		user, err := s.AuthService.UpdateUser(c.Request.Context(), userID, &request)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "user updated successfully", http.StatusOK, user.Response(), nil)
	}
}

func (s *Server) handleSetUserStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := paramID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		var request models.UserStatusRequest
		if err := decode(c, &request); err != nil {
			response.HandleErrors(c, err)
			return
		}
		user, err := s.AuthService.SetUserStatus(c.Request.Context(), userID, *request.IsActive)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "user status updated", http.StatusOK, user.Response(), nil)
	}
}

func (s *Server) handleGrantPoints() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := paramID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		var request models.GrantPointsRequest
		if err := decode(c, &request); err != nil {
			response.HandleErrors(c, err)
			return
		}
		adminID, _ := currentUserID(c)
		balance, err := s.AuthService.GrantPoints(c.Request.Context(), adminID, userID, request.Points)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "points added", http.StatusOK, gin.H{
			"user_id":      userID,
			"points_added": request.Points,
			"balance":      balance,
		}, nil)
	}
}

func (s *Server) handleGetAdminStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := s.StatsService.GetAdminStats(c.Request.Context())
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "stats retrieved successfully", http.StatusOK, stats, nil)
	}
}

func (s *Server) handleGetLedger() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.HandleErrors(c, errs.ErrUnauthorized)
			return
		}
		entries, err := s.StatsService.GetLedger(c.Request.Context(), userID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "ledger retrieved successfully", http.StatusOK, entries, nil)
	}
}

func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.ErrBadRequest.WithMessage("invalid %s", name)
	}
	return uint(id), nil
}
