package storage

// Status 是后端操作的结果码，唤醒协议依赖 NotFound 与其他错误的区分：
// NotFound 表示数据耗尽，属于正常终止；其他错误要回写给对应的连接
type Status struct {
	code statusCode
	msg  string
}

type statusCode byte

const (
	codeOk statusCode = iota
	codeNotFound
	codeWrongType
	codeError
)

func OkStatus() Status {
	return Status{code: codeOk}
}

func NotFoundStatus() Status {
	return Status{code: codeNotFound, msg: "ERR no such key"}
}

func WrongTypeStatus() Status {
	return Status{
		code: codeWrongType,
		msg:  "WRONGTYPE Operation against a key holding the wrong kind of value",
	}
}

func ErrorStatus(msg string) Status {
	return Status{code: codeError, msg: msg}
}

func (s Status) OK() bool {
	return s.code == codeOk
}

func (s Status) IsNotFound() bool {
	return s.code == codeNotFound
}

func (s Status) IsWrongType() bool {
	return s.code == codeWrongType
}

func (s Status) String() string {
	if s.code == codeOk {
		return "OK"
	}
	return s.msg
}
