package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 标准响应结构
// 字段顺序：code -> msg -> data
type Response struct {
	Code int         `json:"code"` // 业务状态码，0 表示成功
	Msg  string      `json:"msg"`  // 响应消息（中文）
	Data interface{} `json:"data"` // 响应数据
}

// 业务错误码
const (
	CodeSuccess = 0 // 操作成功

	// 参数错误 10xxx
	CodeInvalidRequest = 10001 // 请求参数无效
	CodeInvalidFormat  = 10002 // 参数格式错误
	CodeMissingParam   = 10003 // 必填参数缺失

	// 认证/信任错误 20xxx
	CodeInvalidToken   = 20001 // 令牌无效或已过期
	CodeVerifyFailed   = 20002 // 会话校验失败
	CodePolicyRefused  = 20003 // 出境策略拒绝
	CodeSecretMismatch = 20004 // 密钥不匹配
	CodeForbidden      = 20005 // 无权访问该资源

	// 资源不存在 40xxx
	CodeUserNotFound    = 40001 // 用户不存在
	CodeSessionNotFound = 40002 // 旅行会话不存在
	CodeRegionNotFound  = 40003 // 区域不存在
	CodeFolderNotFound  = 40004 // 目录不存在

	// 服务器错误 90xxx
	CodeServerError = 90001 // 服务器内部错误
	CodeUnavailable = 90002 // 服务暂时不可用
)

// 错误码对应的消息
var codeMessages = map[int]string{
	CodeSuccess:         "操作成功",
	CodeInvalidRequest:  "请求参数无效",
	CodeInvalidFormat:   "参数格式错误",
	CodeMissingParam:    "必填参数缺失",
	CodeInvalidToken:    "令牌无效或已过期",
	CodeVerifyFailed:    "会话校验失败",
	CodePolicyRefused:   "目标网格不在允许范围内",
	CodeSecretMismatch:  "密钥不匹配",
	CodeForbidden:       "无权访问该资源",
	CodeUserNotFound:    "用户不存在",
	CodeSessionNotFound: "旅行会话不存在",
	CodeRegionNotFound:  "区域不存在",
	CodeFolderNotFound:  "目录不存在",
	CodeServerError:     "服务器内部错误，请稍后重试",
	CodeUnavailable:     "服务暂时不可用",
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: CodeSuccess,
		Msg:  codeMessages[CodeSuccess],
		Data: data,
	})
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: CodeSuccess,
		Msg:  msg,
		Data: data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int) {
	msg, ok := codeMessages[code]
	if !ok {
		msg = "未知错误"
	}
	c.JSON(codeToHTTPStatus(code), Response{
		Code: code,
		Msg:  msg,
		Data: nil,
	})
}

// ErrorWithMsg 错误响应（自定义消息）
func ErrorWithMsg(c *gin.Context, code int, msg string) {
	c.JSON(codeToHTTPStatus(code), Response{
		Code: code,
		Msg:  msg,
		Data: nil,
	})
}

// codeToHTTPStatus 业务错误码转 HTTP 状态码
func codeToHTTPStatus(code int) int {
	switch {
	case code == CodeSuccess:
		return http.StatusOK
	case code >= 10000 && code < 20000:
		return http.StatusBadRequest
	case code == CodeInvalidToken:
		return http.StatusUnauthorized
	case code >= 20000 && code < 30000:
		return http.StatusForbidden
	case code >= 40000 && code < 50000:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// 超网格线路协议：布尔结果放在 "result" 键里，文本 "True"/"False"。
// 授权失败属于正常结果，照样回 200，不走错误码。

// Result 超网格布尔结果
func Result(c *gin.Context, ok bool) {
	c.JSON(http.StatusOK, gin.H{"result": BoolString(ok)})
}

// ResultWithReason 超网格布尔结果，附用户可读原因
func ResultWithReason(c *gin.Context, ok bool, reason string) {
	c.JSON(http.StatusOK, gin.H{
		"result": BoolString(ok),
		"reason": reason,
	})
}

// ResultData 超网格布尔结果，附额外键值
func ResultData(c *gin.Context, ok bool, data gin.H) {
	out := gin.H{"result": BoolString(ok)}
	for k, v := range data {
		out[k] = v
	}
	c.JSON(http.StatusOK, out)
}

// BoolString 线路协议布尔编码
func BoolString(ok bool) string {
	if ok {
		return "True"
	}
	return "False"
}

// ParseBool 线路协议布尔解码：缺键或非 "True" 一律算失败
func ParseBool(v interface{}) bool {
	s, ok := v.(string)
	return ok && s == "True"
}
