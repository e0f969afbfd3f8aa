package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError represents an error response from the API
// @Description API Error Response
type APIError struct {
	Code int    `json:"code"`
	Err  string `json:"err"`
	Data any    `json:"data,omitempty"`
}

func (e APIError) Error() string {
	return e.Err
}

// APIResponse represents a success response from the API. Handlers return it
// as an error value so ErrorHandler can write it.
// @Description API Success Response
type APIResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func (r APIResponse) Error() string {
	return r.Msg
}

// ErrorHandler adapts a handler returning an error to gin. Failures are also
// attached to the context so the request logger can report them.
func ErrorHandler(fn func(c *gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := fn(c)
		if err == nil {
			return
		}

		var apiResp APIResponse
		if errors.As(err, &apiResp) {
			c.AbortWithStatusJSON(apiResp.Code, apiResp)
			return
		}

		_ = c.Error(err)
		var apiErr APIError
		if errors.As(err, &apiErr) {
			c.AbortWithStatusJSON(apiErr.Code, apiErr)
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{
			Code: http.StatusInternalServerError,
			Err:  err.Error(),
		})
	}
}
