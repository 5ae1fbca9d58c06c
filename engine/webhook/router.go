package webhook

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beacon-agent/beacon/engine/core"
	"github.com/beacon-agent/beacon/pkg/logger"
)

// RegisterRoutes mounts the webhook management surface under the provided
// router group:
//
//	POST   ""          register a webhook
//	GET    ""          list webhooks
//	GET    "/:id"      fetch one webhook
//	DELETE "/:id"      remove a webhook
//	POST   "/:id/test" send a synthetic event and return the raw result
func RegisterRoutes(rg *gin.RouterGroup, svc *Service) {
	rg.POST("", func(c *gin.Context) {
		var in RegisterInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		cfg, err := svc.Add(&in)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, redact(cfg))
	})

	rg.GET("", func(c *gin.Context) {
		list := svc.List()
		out := make([]gin.H, 0, len(list))
		for _, cfg := range list {
			out = append(out, redact(cfg))
		}
		c.JSON(http.StatusOK, gin.H{"webhooks": out})
	})

	rg.GET("/:id", func(c *gin.Context) {
		cfg, ok := svc.Get(core.ID(c.Param("id")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusOK, redact(cfg))
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		if !svc.Remove(core.ID(c.Param("id"))) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	rg.POST("/:id/test", func(c *gin.Context) {
		result, err := svc.Test(c.Request.Context(), core.ID(c.Param("id")))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
				return
			}
			logger.FromContext(c.Request.Context()).Error("webhook test failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

// redact shapes a webhook for API responses: the secret itself never leaves
// the process, only whether one is set.
func redact(cfg *Config) gin.H {
	return gin.H{
		"id":          cfg.ID,
		"url":         cfg.URL,
		"description": cfg.Description,
		"has_secret":  cfg.Secret != "",
		"created_at":  cfg.CreatedAt,
	}
}
