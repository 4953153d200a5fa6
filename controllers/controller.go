package controllers

import (
	"github.com/gin-gonic/gin"

	"ubilite/offline"
)

const serviceKey = "offline"

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(200, payload)
}

// SetServiceToContext makes the channel stack available to every handler.
func SetServiceToContext(svc *offline.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(serviceKey, svc)
		c.Next()
	}
}

func ServiceInstance(c *gin.Context) *offline.Service {
	v, ok := c.Get(serviceKey)
	if !ok {
		return nil
	}
	svc, _ := v.(*offline.Service)
	return svc
}
