package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every handler renders.
type Response struct {
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// RespondOK renders a 200 with the standard envelope
func RespondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Message: message, Data: data})
}

// RespondCreated renders a 201 with the standard envelope
func RespondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Response{Message: message, Data: data})
}

// RespondAccepted renders a 202 with the standard envelope
func RespondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, Response{Message: message, Data: data})
}

// RespondWithError renders an error with the standard envelope
func RespondWithError(c *gin.Context, statusCode int, err error) {
	var info *ErrorInfo
	if reqErr, ok := err.(*RequestError); ok {
		info = reqErr.GetErrorInfo()
	} else {
		info = &ErrorInfo{Code: ErrInternalCode, Message: err.Error()}
	}
	c.AbortWithStatusJSON(statusCode, Response{Error: info})
}

// RespondWithDomainError maps a domain error kind to its status and renders it
func RespondWithDomainError(c *gin.Context, err error) {
	reqErr := FromDomain(err)
	RespondWithError(c, reqErr.StatusCode, reqErr)
}
