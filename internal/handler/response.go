package handler

import "github.com/gin-gonic/gin"

// envelope is the shape of every JSON API response.
type envelope struct {
	Code  int    `json:"code"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Code: 0, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, envelope{Code: 1, Error: msg})
}
