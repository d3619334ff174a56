// Package decode 提供 JSON 文本 → 值树的递归下降解析器
//
// 解析器是单遍字符扫描驱动的显式状态机，五个状态:
// WaitingForRootOpen / WaitingForField / WaitingForColon /
// WaitingForValue / WaitingForNextOrClose。根必须以 '{' 或 '['
// 开启，裸标量根被拒绝。嵌套对象/数组通过递归调用同一状态机
// 解析，嵌套解析的结束偏移回接到父级扫描位置（索引模式）。
//
// 宽容性（刻意偏离严格语法，保持行为兼容）:
//   - 被输入末尾截断的转义序列按字面量透传而非报错
//   - 对象重复键 last-write-wins（键位置保持）
//
// 严格性: 其余任何语法违规都是携带行列号的致命 ParseError。
//
// 用法:
//
//	v, err := decode.Parse(`{"name":"knit"}`)
//	if err != nil {
//	    var pe *decode.ParseError
//	    errors.As(err, &pe) // pe.Line / pe.Column / pe.State
//	}
package decode

import (
	"unicode/utf8"

	"github.com/uniyakcom/knit/value"
)

// Parse 解析 JSON 文本，返回根值树
//
// 成功时恰好返回一个根 Value（对象或数组）。失败语义: 首个
// 语法违规即停止，返回 *ParseError。
func Parse(s string) (*value.Value, error) {
	d := &decoder{s: s}
	d.skipWS()
	if d.i >= len(d.s) || (d.s[d.i] != '{' && d.s[d.i] != '[') {
		return nil, d.fail(StateRootOpen, "expected '{' or '['")
	}
	v, err := d.parseValue()
	if err != nil {
		return nil, err
	}
	d.skipWS()
	if d.i < len(d.s) {
		return nil, d.fail(StateNextOrClose, "unexpected trailing data")
	}
	return v, nil
}

// ParseBytes 解析 JSON 字节切片
func ParseBytes(b []byte) (*value.Value, error) {
	return Parse(string(b))
}

// decoder 单遍扫描游标（每次顶层调用独占，不跨调用共享）
type decoder struct {
	s string
	i int
}

// skipWS 内联空白跳过（除字符串/数字字面量提取外的所有状态）
func (d *decoder) skipWS() {
	for d.i < len(d.s) && d.s[d.i] <= ' ' {
		d.i++
	}
}

// fail 在当前偏移构造 ParseError（行列号由绝对偏移计算）
func (d *decoder) fail(st State, msg string) error {
	line, col := position(d.s, d.i)
	var c byte
	if d.i < len(d.s) {
		c = d.s[d.i]
	}
	return &ParseError{Line: line, Column: col, State: st, Char: c, Msg: msg}
}

// position 由绝对偏移计算 1-based 行列号
func position(s string, off int) (line, col int) {
	line = 1
	last := -1
	if off > len(s) {
		off = len(s)
	}
	for i := 0; i < off; i++ {
		if s[i] == '\n' {
			line++
			last = i
		}
	}
	return line, off - last
}

// parseValue 解析任意 JSON 值（WaitingForValue 状态的分发点）
func (d *decoder) parseValue() (*value.Value, error) {
	if d.i >= len(d.s) {
		return nil, d.fail(StateValue, "expected value")
	}
	switch d.s[d.i] {
	case '{':
		return d.parseObject()
	case '[':
		return d.parseArray()
	case '"':
		s, err := d.scanString(StateValue)
		if err != nil {
			return nil, err
		}
		return value.String(s), nil
	case 't':
		if err := d.literal("true"); err != nil {
			return nil, err
		}
		return value.Bool(true), nil
	case 'f':
		if err := d.literal("false"); err != nil {
			return nil, err
		}
		return value.Bool(false), nil
	case 'n':
		if err := d.literal("null"); err != nil {
			return nil, err
		}
		return value.Null(), nil
	default:
		return d.parseNumber()
	}
}

// parseObject 解析对象（d.s[d.i] == '{'）
//
// 状态循环: WaitingForField → WaitingForColon → WaitingForValue →
// WaitingForNextOrClose → (',' 回到 WaitingForField | '}' 结束)。
// 空对象 {} 在 WaitingForField 状态被接受。
func (d *decoder) parseObject() (*value.Value, error) {
	obj := value.NewObject()
	d.i++ // skip '{'
	for {
		// WaitingForField
		d.skipWS()
		if d.i >= len(d.s) {
			return nil, d.fail(StateField, "unterminated object")
		}
		if d.s[d.i] == '}' && obj.Len() == 0 {
			d.i++
			return obj, nil
		}
		if d.s[d.i] != '"' {
			return nil, d.fail(StateField, "expected field name")
		}
		key, err := d.scanString(StateField)
		if err != nil {
			return nil, err
		}
		// WaitingForColon
		d.skipWS()
		if d.i >= len(d.s) || d.s[d.i] != ':' {
			return nil, d.fail(StateColon, "expected ':'")
		}
		d.i++ // skip ':'
		// WaitingForValue
		d.skipWS()
		val, err := d.parseValue()
		if err != nil {
			return nil, err
		}
		// 重复键: last-write-wins，键位置保持不变
		obj.Set(key, val)
		// WaitingForNextOrClose
		d.skipWS()
		if d.i >= len(d.s) {
			return nil, d.fail(StateNextOrClose, "unterminated object")
		}
		switch d.s[d.i] {
		case ',':
			d.i++
		case '}':
			d.i++
			return obj, nil
		default:
			return nil, d.fail(StateNextOrClose, "expected ',' or '}'")
		}
	}
}

// parseArray 解析数组（d.s[d.i] == '['）
//
// 空数组 [] 在 WaitingForValue 状态被接受。
func (d *decoder) parseArray() (*value.Value, error) {
	arr := value.NewArray()
	d.i++ // skip '['
	for {
		// WaitingForValue
		d.skipWS()
		if d.i >= len(d.s) {
			return nil, d.fail(StateValue, "unterminated array")
		}
		if d.s[d.i] == ']' && arr.Len() == 0 {
			d.i++
			return arr, nil
		}
		elem, err := d.parseValue()
		if err != nil {
			return nil, err
		}
		arr.Append(elem)
		// WaitingForNextOrClose
		d.skipWS()
		if d.i >= len(d.s) {
			return nil, d.fail(StateNextOrClose, "unterminated array")
		}
		switch d.s[d.i] {
		case ',':
			d.i++
		case ']':
			d.i++
			return arr, nil
		default:
			return nil, d.fail(StateNextOrClose, "expected ',' or ']'")
		}
	}
}

// literal 固定长度字面量比较（true / false / null）
//
// 失配时游标停在首个不匹配字符上，错误指向该字符。
func (d *decoder) literal(lit string) error {
	for j := 0; j < len(lit); j++ {
		if d.i+j >= len(d.s) {
			d.i += j
			return d.fail(StateValue, "truncated literal")
		}
		if d.s[d.i+j] != lit[j] {
			d.i += j
			return d.fail(StateValue, "invalid literal")
		}
	}
	d.i += len(lit)
	return nil
}

// parseNumber 扫描数字字面量
//
// 最大化扫描: 吞到空白、分隔符或闭合符为止，再整体校验。
// 原始字面量原样保留（精度无损往返），校验失败为致命错误。
func (d *decoder) parseNumber() (*value.Value, error) {
	start := d.i
	for d.i < len(d.s) {
		c := d.s[d.i]
		if c <= ' ' || c == ',' || c == '}' || c == ']' {
			break
		}
		d.i++
	}
	lit := d.s[start:d.i]
	if !value.ValidNumber(lit) {
		d.i = start
		return nil, d.fail(StateValue, "invalid number literal")
	}
	return value.Number(lit), nil
}

// scanString 解析引号字符串（d.s[d.i] == '"'）
//
// 快速路径: 无转义时直接切片。含转义 fallback 到 scanStringSlow。
func (d *decoder) scanString(st State) (string, error) {
	d.i++ // skip opening '"'
	start := d.i
	for d.i < len(d.s) {
		c := d.s[d.i]
		if c == '"' {
			s := d.s[start:d.i]
			d.i++ // skip closing '"'
			return s, nil
		}
		if c == '\\' {
			return d.scanStringSlow(start, st)
		}
		d.i++
	}
	return "", d.fail(st, "unterminated string")
}

// scanStringSlow 慢速路径: 解转义
//
// 识别 \\ \" \/ \b \t \n \f \r \uXXXX（4 位十六进制，大端码元，
// 代理对合并）。被输入截断或无法识别的转义按字面量透传（宽容）。
func (d *decoder) scanStringSlow(start int, st State) (string, error) {
	s := d.s
	n := len(s)
	i := d.i
	buf := make([]byte, 0, n-start+8)
	buf = append(buf, s[start:i]...)
	for i < n {
		c := s[i]
		if c == '"' {
			d.i = i + 1
			return string(buf), nil
		}
		if c != '\\' {
			buf = append(buf, c)
			i++
			continue
		}
		if i+1 >= n {
			// EOF 截断的转义: 透传反斜杠本身
			buf = append(buf, '\\')
			i++
			continue
		}
		esc := s[i+1]
		switch esc {
		case '"', '\\', '/':
			buf = append(buf, esc)
			i += 2
		case 'b':
			buf = append(buf, '\b')
			i += 2
		case 't':
			buf = append(buf, '\t')
			i += 2
		case 'n':
			buf = append(buf, '\n')
			i += 2
		case 'f':
			buf = append(buf, '\f')
			i += 2
		case 'r':
			buf = append(buf, '\r')
			i += 2
		case 'u':
			if i+6 > n || !isHex4(s[i+2:i+6]) {
				// 截断或非十六进制: 透传
				buf = append(buf, '\\')
				i++
				continue
			}
			r := hex4(s[i+2 : i+6])
			i += 6
			// 代理对: 高代理 + \uXXXX 低代理合并为补充平面码点
			if r >= 0xD800 && r <= 0xDBFF && i+6 <= n && s[i] == '\\' && s[i+1] == 'u' && isHex4(s[i+2:i+6]) {
				r2 := hex4(s[i+2 : i+6])
				if r2 >= 0xDC00 && r2 <= 0xDFFF {
					r = 0x10000 + (r-0xD800)<<10 + (r2 - 0xDC00)
					i += 6
				}
			}
			if r >= 0xD800 && r <= 0xDFFF {
				r = utf8.RuneError
			}
			buf = utf8.AppendRune(buf, r)
		default:
			// 未识别的转义: 透传两个字符
			buf = append(buf, '\\', esc)
			i += 2
		}
	}
	d.i = i
	return "", d.fail(st, "unterminated string")
}

// isHex4 校验 4 位十六进制
func isHex4(s string) bool {
	for j := 0; j < 4; j++ {
		c := s[j]
		ok := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !ok {
			return false
		}
	}
	return true
}

// hex4 解析 4 位十六进制为码元（大端）
func hex4(s string) rune {
	var r rune
	for j := 0; j < 4; j++ {
		c := s[j]
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c - 'a' + 10)
		default:
			r |= rune(c - 'A' + 10)
		}
	}
	return r
}
