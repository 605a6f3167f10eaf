package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindnoscape/web-app/src/pkg/data"
	"mindnoscape/web-app/src/pkg/log"
)

func bindMindmap(c *gin.Context) (*MindmapRequest, bool) {
	var req MindmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, validationMessage(err))
		return nil, false
	}
	return &req, true
}

// ListMindmaps returns the caller's maps, most recently updated first.
// With ?latest=true it returns the most recent full document instead.
func ListMindmaps(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := GetSession(c).User.ID
		ctx := c.Request.Context()

		if c.Query("latest") == "true" {
			m, err := s.data.MindmapManager.MindmapLatest(ctx, owner)
			if err != nil {
				if errors.Is(err, data.ErrNotFound) {
					respondError(c, http.StatusNotFound, msgNoMindmap)
					return
				}
				respondDataError(c, s.logger, err)
				return
			}
			c.JSON(http.StatusOK, m)
			return
		}

		list, err := s.data.MindmapManager.MindmapList(ctx, owner)
		if err != nil {
			respondDataError(c, s.logger, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// CreateMindmap stores a new document for the caller.
func CreateMindmap(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindMindmap(c)
		if !ok {
			return
		}
		info, _ := req.Info()
		owner := GetSession(c).User.ID

		m, err := s.data.MindmapManager.MindmapAdd(c.Request.Context(), owner, info)
		if err != nil {
			respondDataError(c, s.logger, err)
			return
		}
		s.logger.Command(c.Request.Context(), "mindmap create", log.Fields{"userID": owner, "id": m.ID})
		c.JSON(http.StatusCreated, m)
	}
}

// GetMindmap returns one of the caller's documents.
func GetMindmap(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.data.MindmapManager.MindmapGet(c.Request.Context(), GetSession(c).User.ID, c.Param("id"))
		if err != nil {
			respondDataError(c, s.logger, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

// UpdateMindmap applies only the fields present in the body.
func UpdateMindmap(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindMindmap(c)
		if !ok {
			return
		}
		info, filter := req.Info()
		owner := GetSession(c).User.ID

		m, err := s.data.MindmapManager.MindmapUpdate(c.Request.Context(), owner, c.Param("id"), info, filter)
		if err != nil {
			respondDataError(c, s.logger, err)
			return
		}
		s.logger.Command(c.Request.Context(), "mindmap update", log.Fields{"userID": owner, "id": m.ID})
		c.JSON(http.StatusOK, m)
	}
}

// DeleteMindmap removes one of the caller's documents.
func DeleteMindmap(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := GetSession(c).User.ID
		id := c.Param("id")

		if err := s.data.MindmapManager.MindmapDelete(c.Request.Context(), owner, id); err != nil {
			respondDataError(c, s.logger, err)
			return
		}
		s.logger.Command(c.Request.Context(), "mindmap delete", log.Fields{"userID": owner, "id": id})
		c.JSON(http.StatusOK, gin.H{"message": "Mind map removed", "id": id})
	}
}
