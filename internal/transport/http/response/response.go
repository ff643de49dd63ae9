package response

import "github.com/gin-gonic/gin"

type Resp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

// New 构造函数（保证 data 不为 null）
func New(code int, msg string, data any) Resp {
	if data == nil {
		data = struct{}{}
	}
	if msg == "" {
		msg = CodeMsgMap[code]
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

// OK 成功响应
func OK(data any) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	return New(code, customMsg, nil)
}

// Abort 以 code 作为 HTTP 状态终止请求
func Abort(c *gin.Context, code int, msg string, data any) {
	c.AbortWithStatusJSON(code, New(code, msg, data))
}
