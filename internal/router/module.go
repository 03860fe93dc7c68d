package router

import "github.com/gin-gonic/gin"

// Module is one routable feature area (profiles, reviews) that mounts its
// own routes and route-local middleware onto the shared group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
