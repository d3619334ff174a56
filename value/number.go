package value

import (
	"math"
	"strconv"
)

// 数字以原始字面量存储、按需解析，本文件提供三类操作:
// 字面量语法校验（decode 的致命错误判定）、int64/float64 解析、
// 以及构造用的格式化（不变文化: 点号小数，无分组符）。

// ValidNumber 校验 s 是否为合法 JSON 数字字面量
//
// 语法: -?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?
func ValidNumber(s string) bool {
	i, n := 0, len(s)
	if i < n && s[i] == '-' {
		i++
	}
	if i >= n {
		return false
	}
	if s[i] == '0' {
		i++
	} else if s[i] >= '1' && s[i] <= '9' {
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	} else {
		return false
	}
	if i < n && s[i] == '.' {
		i++
		if i >= n || s[i] < '0' || s[i] > '9' {
			return false
		}
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if i >= n || s[i] < '0' || s[i] > '9' {
			return false
		}
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	return i == n
}

// parseInt 快速整数解析（避免 strconv.ParseInt 开销）
//
// 支持负数，溢出返回错误。浮点字面量 fallback 到 parseFloat 截断。
func parseInt(s string) (int64, error) {
	if len(s) == 0 {
		return 0, errInvalidNumber
	}
	neg := false
	i := 0
	if s[0] == '-' {
		neg = true
		i = 1
	}
	if i >= len(s) {
		return 0, errInvalidNumber
	}

	var n uint64
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			// 遇到 '.', 'e', 'E' 说明是浮点数 → fallback
			if c == '.' || c == 'e' || c == 'E' {
				f, err := parseFloat(s)
				if err != nil {
					return 0, err
				}
				return int64(f), nil
			}
			return 0, errInvalidNumber
		}
		d := uint64(c - '0')
		if n > (math.MaxInt64+uint64(1)-d)/10 {
			return 0, errOverflow
		}
		n = n*10 + d
	}

	if neg {
		if n > uint64(math.MaxInt64)+1 {
			return 0, errOverflow
		}
		return -int64(n), nil
	}
	if n > uint64(math.MaxInt64) {
		return 0, errOverflow
	}
	return int64(n), nil
}

// parseFloat 浮点数解析
//
// 简单数字走手写快速路径（整数运算），超出范围或精度敏感的
// 字面量 fallback 到 strconv.ParseFloat 精确解析。
func parseFloat(s string) (float64, error) {
	if len(s) == 0 {
		return 0, errInvalidNumber
	}

	neg := false
	i := 0
	if s[0] == '-' {
		neg = true
		i = 1
	}
	if i >= len(s) {
		return 0, errInvalidNumber
	}

	// 整数部分
	var intPart uint64
	intDigits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		intPart = intPart*10 + uint64(s[i]-'0')
		intDigits++
		i++
	}
	if intDigits == 0 || intDigits > 18 {
		return slowFloat(s)
	}

	result := float64(intPart)

	// 小数部分
	if i < len(s) && s[i] == '.' {
		i++
		fracStart := i
		var fracPart uint64
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			fracPart = fracPart*10 + uint64(s[i]-'0')
			i++
		}
		fracDigits := i - fracStart
		if fracDigits == 0 || fracDigits > 18 {
			return slowFloat(s)
		}
		result += float64(fracPart) / pow10f(fracDigits)
	}

	// 指数部分交给精确路径（避免 math.Pow 累积误差）
	if i < len(s) {
		return slowFloat(s)
	}

	if neg {
		result = -result
	}
	return result, nil
}

// slowFloat 精确解析路径
func slowFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errInvalidNumber
	}
	return f, nil
}

// pow10f 10^n 查表（n=0..22 精确）
func pow10f(n int) float64 {
	if n < len(pow10Tab) {
		return pow10Tab[n]
	}
	return math.Pow(10, float64(n))
}

var pow10Tab = [...]float64{
	1e0, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7,
	1e8, 1e9, 1e10, 1e11, 1e12, 1e13, 1e14, 1e15,
	1e16, 1e17, 1e18, 1e19, 1e20, 1e21, 1e22,
}

// ─── 格式化（构造用） ───

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		// JSON 不支持 NaN/Inf，归一为 0
		return "0"
	}
	if f == math.Trunc(f) && f >= -1e15 && f <= 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// 错误常量
type numError string

func (e numError) Error() string { return string(e) }

const (
	errInvalidNumber numError = "value: invalid number literal"
	errOverflow      numError = "value: number overflow"
	errNotNumber     numError = "value: not a number"
)
