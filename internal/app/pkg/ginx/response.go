package ginx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"jobsvc/internal/app/domains/entity/etjoborder"
)

// Response 统一响应结构
type Response struct {
	Meta Meta        `json:"meta"`
	Data interface{} `json:"data,omitempty"`
}

// Meta 元数据
type Meta struct {
	Code    int           `json:"code" example:"200"`
	Message string        `json:"message" example:"OK"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Path string `json:"path" example:"maxRetry"`
	Info string `json:"info" example:"maxRetry must be at least 0"`
}

// ConflictData 非法状态迁移时返回的数据
type ConflictData struct {
	From          etjoborder.JobStatus   `json:"from"`
	To            etjoborder.JobStatus   `json:"to"`
	ExpectingFrom []etjoborder.JobStatus `json:"expectingFrom"`
}

// Success 成功响应（200）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Meta: Meta{
			Code:    200,
			Message: "OK",
		},
		Data: data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, Response{
		Meta: Meta{
			Code:    httpCode,
			Message: message,
		},
	})
}

// ErrorWithDetails 带详情的错误响应
func ErrorWithDetails(c *gin.Context, httpCode int, message string, details []ErrorDetail) {
	c.JSON(httpCode, Response{
		Meta: Meta{
			Code:    httpCode,
			Message: message,
			Details: details,
		},
	})
}

// BadRequest 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// BadRequestWithValidation 400 错误（带验证详情）
func BadRequestWithValidation(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]ErrorDetail, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details = append(details, ErrorDetail{
				Path: fieldErr.Field(),
				Info: getValidationErrorMessage(fieldErr),
			})
		}
		ErrorWithDetails(c, http.StatusBadRequest, "Validation failed", details)
		return
	}
	if details, ok := parseErrorDetails(c, err); ok {
		ErrorWithDetails(c, http.StatusBadRequest, "Validation failed", details)
		return
	}

	BadRequest(c, err.Error())
}

// parseErrorDetails 处理绑定阶段的解析错误（数字、时间、JSON），这类错误不带字段名
func parseErrorDetails(c *gin.Context, err error) ([]ErrorDetail, bool) {
	var (
		numErr    *strconv.NumError
		timeErr   *time.ParseError
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &numErr):
		path := queryKeyOf(c, numErr.Num)
		return []ErrorDetail{{Path: path, Info: path + " must be a number"}}, true
	case errors.As(err, &timeErr):
		path := queryKeyOf(c, timeErr.Value)
		return []ErrorDetail{{Path: path, Info: path + " must be an RFC3339 time"}}, true
	case errors.As(err, &typeErr):
		path := "body"
		if typeErr.Field != "" {
			path = typeErr.Field
		}
		return []ErrorDetail{{Path: path, Info: path + " must be " + typeErr.Type.String()}}, true
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return []ErrorDetail{{Path: "body", Info: "body must be valid JSON"}}, true
	case errors.Is(err, io.EOF):
		return []ErrorDetail{{Path: "body", Info: "body is required"}}, true
	}
	return nil, false
}

// queryKeyOf 按取值反查 query 参数名，找不到时返回 query
func queryKeyOf(c *gin.Context, value string) string {
	if c.Request == nil {
		return "query"
	}
	query := c.Request.URL.Query()
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, v := range query[key] {
			if v == value {
				return key
			}
		}
	}
	return "query"
}

// NotFound 404 错误
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Conflict 409 错误，携带 from/to/expectingFrom
func Conflict(c *gin.Context, err *etjoborder.InvalidTransitionError) {
	c.JSON(http.StatusConflict, Response{
		Meta: Meta{
			Code:    http.StatusConflict,
			Message: err.Error(),
		},
		Data: ConflictData{
			From:          err.From,
			To:            err.To,
			ExpectingFrom: err.ExpectingFrom,
		},
	})
}

// InternalError 500 错误
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// RenderError 将服务层错误映射为 HTTP 响应
func RenderError(c *gin.Context, err error) {
	var transitionErr *etjoborder.InvalidTransitionError
	switch {
	case errors.As(err, &transitionErr):
		Conflict(c, transitionErr)
	case errors.Is(err, etjoborder.ErrNotFound):
		NotFound(c, err.Error())
	case isValidationError(err):
		BadRequestWithValidation(c, err)
	default:
		InternalError(c, err.Error())
	}
}

func isValidationError(err error) bool {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return true
	}
	return errors.Is(err, etjoborder.ErrInvalidType) ||
		errors.Is(err, etjoborder.ErrInvalidMaxRetry) ||
		errors.Is(err, etjoborder.ErrInvalidTimeout) ||
		errors.Is(err, etjoborder.ErrInvalidRun) ||
		errors.Is(err, etjoborder.ErrInvalidErrorType)
}

// getValidationErrorMessage 根据验证错误类型返回友好的错误消息
func getValidationErrorMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "min":
		return fieldErr.Field() + " must be at least " + fieldErr.Param()
	case "max":
		return fieldErr.Field() + " must be at most " + fieldErr.Param()
	case "oneof":
		return fieldErr.Field() + " must be one of [" + fieldErr.Param() + "]"
	default:
		return fieldErr.Field() + " is invalid"
	}
}
