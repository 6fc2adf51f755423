package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	errs "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
	"github.com/kphotone-reward/backend/server/response"
	"github.com/kphotone-reward/backend/services/jwt"
	"github.com/pkg/errors"
)

func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := getTokenFromHeader(c)
		if accessToken == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		accessClaims, err := jwt.ValidateAndGetClaims(accessToken, s.Config.JWTSecret)
		if err != nil {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		userID, err := jwt.UserIDFromClaims(accessClaims)
		if err != nil {
			respondAndAbort(c, "", http.StatusBadRequest, nil, errs.ErrBadRequest.WithMessage("%s", err.Error()))
			return
		}

		user, err := s.AuthRepository.FindUserByID(c.Request.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, errs.ErrNotFound):
				respondAndAbort(c, "user not found", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			default:
				log.Printf("Authorize: %v", err)
				respondAndAbort(c, "unable to find entity", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			}
			return
		}
		if !user.IsActive {
			respondAndAbort(c, "inactive user", http.StatusForbidden, nil, errs.InActiveUserError)
			return
		}

		c.Set("user", user)
		c.Set("userID", userID)
		c.Set("access_token", accessToken)
		c.Next()
	}
}

// RequireAdmin must run after Authorize.
func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok || !user.IsAdmin() {
			respondAndAbort(c, "", http.StatusForbidden, nil, errs.ErrForbidden.WithMessage("admin access required"))
			return
		}
		c.Next()
	}
}

// newRateLimiter limits calls to limit per rate, keyed by keyFunc.
func (s *Server) newRateLimiter(rate time.Duration, limit uint, keyFunc func(c *gin.Context) string) gin.HandlerFunc {
	var store ratelimit.Store
	if s.Redis != nil {
		store = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: s.Redis,
			Rate:        rate,
			Limit:       limit,
		})
	} else {
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  rate,
			Limit: limit,
		})
	}
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errs.ErrorHandler,
		KeyFunc:      keyFunc,
	})
}

func keyFuncClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// keyFuncUserID keys on the authenticated user, falling back to the client IP.
func keyFuncUserID(c *gin.Context) string {
	if userID, ok := c.Get("userID"); ok {
		return fmt.Sprintf("user:%v", userID)
	}
	return keyFuncClientIP(c)
}

func currentUser(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get("user")
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func currentUserID(c *gin.Context) (uint, bool) {
	value, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok
}

// respondAndAbort calls response.JSON and aborts the Context
func respondAndAbort(c *gin.Context, message string, status int, data interface{}, e *errs.Error) {
	response.JSON(c, message, status, data, e)
	c.Abort()
}

// getTokenFromHeader returns the token string in the authorization header
func getTokenFromHeader(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	if len(authHeader) > 8 {
		return authHeader[7:]
	}
	return ""
}

// decode binds the JSON body into v and runs the binding validators.
func decode(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return errs.ErrBadRequest.WithMessage("%s", err.Error())
	}
	return nil
}
