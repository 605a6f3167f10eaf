package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindnoscape/web-app/src/pkg/data"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
)

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleRegister creates an account and opens a session for it.
func HandleRegister(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Email = data.NormalizeEmail(req.Email)
		if err := req.Validate(); err != nil {
			respondError(c, http.StatusBadRequest, validationMessage(err))
			return
		}

		ctx := c.Request.Context()
		user, err := s.data.UserManager.UserAdd(ctx, model.UserInfo{Email: req.Email, Password: req.Password})
		if err != nil {
			respondDataError(c, s.logger, err)
			return
		}

		sess, err := s.sessions.SessionAdd(ctx, user)
		if err != nil {
			respondDataError(c, s.logger, err)
			return
		}

		s.logger.Command(ctx, "user register", log.Fields{"userID": user.ID})
		c.JSON(http.StatusCreated, AuthResponse{
			ID:      user.ID,
			Email:   user.Email,
			Token:   sess.ID,
			Message: msgRegisterComplete,
		})
	}
}

// HandleLogin exchanges credentials for a bearer token.
func HandleLogin(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := req.Validate(); err != nil {
			respondError(c, http.StatusBadRequest, validationMessage(err))
			return
		}

		ctx := c.Request.Context()
		user, err := s.data.UserManager.UserAuthenticate(ctx, model.UserInfo{Email: req.Email, Password: req.Password})
		if err != nil {
			if errors.Is(err, data.ErrInvalidCredentials) {
				respondError(c, http.StatusUnauthorized, msgInvalidCreds)
				return
			}
			respondDataError(c, s.logger, err)
			return
		}

		sess, err := s.sessions.SessionAdd(ctx, user)
		if err != nil {
			respondDataError(c, s.logger, err)
			return
		}

		s.logger.Command(ctx, "user login", log.Fields{"userID": user.ID})
		c.JSON(http.StatusOK, AuthResponse{
			ID:      user.ID,
			Email:   user.Email,
			Token:   sess.ID,
			Message: msgLoginComplete,
		})
	}
}

// HandleLogout ends the caller's session.
func HandleLogout(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := GetSession(c)
		s.sessions.SessionDelete(c.Request.Context(), sess.ID)
		s.logger.Command(c.Request.Context(), "user logout", log.Fields{"userID": sess.User.ID})
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// HandleMe returns the authenticated user.
func HandleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := GetSession(c)
		c.JSON(http.StatusOK, gin.H{
			"id":        sess.User.ID,
			"email":     sess.User.Email,
			"createdAt": sess.User.Created,
		})
	}
}
