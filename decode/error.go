package decode

import "fmt"

// State 解析器状态（显式有限状态机的五个状态）
type State uint8

const (
	StateRootOpen    State = iota // 等待根 '{' 或 '['
	StateField                    // 等待对象字段名
	StateColon                    // 等待 ':'
	StateValue                    // 等待值
	StateNextOrClose              // 等待 ',' 或闭合符
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateRootOpen:
		return "WaitingForRootOpen"
	case StateField:
		return "WaitingForField"
	case StateColon:
		return "WaitingForColon"
	case StateValue:
		return "WaitingForValue"
	case StateNextOrClose:
		return "WaitingForNextOrClose"
	default:
		return "unknown"
	}
}

// ParseError 语法错误
//
// 携带 1-based 行列号（由绝对扫描偏移计算）、出错时的解析器
// 状态与违规字符。任何语法违规都是致命的: 解析在首个错误处停止，
// 没有恢复路径。
type ParseError struct {
	Line   int    // 1-based 行号
	Column int    // 1-based 列号
	State  State  // 出错时的解析器状态
	Char   byte   // 违规字符（0 表示输入耗尽）
	Msg    string // 错误描述
}

func (e *ParseError) Error() string {
	if e.Char == 0 {
		return fmt.Sprintf("decode: %s at line %d, column %d (state %s, unexpected end of input)",
			e.Msg, e.Line, e.Column, e.State)
	}
	return fmt.Sprintf("decode: %s at line %d, column %d (state %s, got %q)",
		e.Msg, e.Line, e.Column, e.State, e.Char)
}
