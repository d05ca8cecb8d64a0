package response

import "github.com/gin-gonic/gin"

const (
	CodeOK              = 0
	CodeBadRequest      = 40000
	CodeValidation      = 40001
	CodeUnknownStep     = 40002
	CodeIncomplete      = 40003
	CodeUnauthorized    = 40100
	CodeSessionInvalid  = 40101
	CodeCapability      = 40300
	CodeNotFound        = 40400
	CodeSessionNotFound = 40401
	CodeMessageNotFound = 40402
	CodeConflict        = 40900
	CodeInternalServer  = 50000
	CodeUpstream        = 50200
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// ErrorWithData is Error carrying a payload, such as per-field validation
// messages or the state the client should render next.
func ErrorWithData(c *gin.Context, httpStatus, code int, message string, data interface{}) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}
