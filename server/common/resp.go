package common

const (
	CodeSuccess       = 0
	CodeUnknownError  = 1
	CodeParamError    = 2
	CodeRunInProgress = 3
	CodeStageFailed   = 4
	CodeNotFound      = 5
)

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

func MakeSuccessResp(data interface{}) *Resp {
	return &Resp{
		Code: CodeSuccess,
		Msg:  "success",
		Data: data,
	}
}

func MakeUnknownErrorResp() *Resp {
	return &Resp{
		Code: CodeUnknownError,
		Msg:  "unknown error",
	}
}

func MakeErrorResp(code int, msg string, data interface{}) *Resp {
	return &Resp{
		Code: code,
		Msg:  msg,
		Data: data,
	}
}
