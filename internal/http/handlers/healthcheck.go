package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Banner answers the root path so load balancers and humans get a
// non-404 without authenticating.
func Banner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "motion-library", "status": "running"})
}
