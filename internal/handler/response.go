package handler

import (
	"errors"
	"net/http"

	"github.com/blues/pfs/internal/logic"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// FailWithError 按错误类别映射HTTP状态码
func FailWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, logic.ErrValidation):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, logic.ErrUnauthorized):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, logic.ErrState):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, logic.ErrProofVerification):
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, logic.ErrResource):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, logic.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	default:
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
