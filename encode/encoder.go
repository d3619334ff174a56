// Package encode 提供对象图 → JSON 文本的序列化器
//
// 序列化器自行完成反射字段提取（与 fields 解析器同一套策略），
// 向 []byte 直接追加输出。复合成员采用 append-then-trim: 先为
// 每个成员追加尾部分隔符，收尾时去掉最后一个，再闭合。
//
// 防护与约定:
//   - 显式深度计数，复合嵌套超过 MaxDepth(20) 致命返回
//     RecursionError —— 这是防失控递归的护栏，不做静默截断
//   - 下降进入复合对象前按身份查 visited 集，命中则输出
//     {"$circref": "<id>"} 哨兵而非再次下降
//   - 单字段提取失败（访问器 panic）只省略该字段，不中断对象
//   - 空对象/空数组恒定输出紧凑字面量 { } / [ ]
//
// 用法:
//
//	s, err := encode.Marshal(obj, &fields.Options{Pretty: true})
package encode

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/uniyakcom/knit/fields"
	"github.com/uniyakcom/knit/value"
)

// MaxDepth 复合嵌套深度上限
const MaxDepth = 20

// timeLayout 日期时间输出: ISO-8601 秒精度
const timeLayout = "2006-01-02T15:04:05"

// RecursionError 嵌套深度超限（病态结构或无身份复用的深环）
type RecursionError struct {
	Depth int
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("encode: nesting depth %d exceeds limit %d", e.Depth, MaxDepth)
}

// Marshal 将对象图序列化为 JSON 文本
//
// opts 为单次调用独占（其 visited 集在本次调用内累积），
// 不得跨调用复用同一实例。nil opts 等价于零值选项。
func Marshal(obj any, opts *fields.Options) (string, error) {
	if opts == nil {
		opts = &fields.Options{}
	}
	buf, err := appendValue(make([]byte, 0, 256), reflect.ValueOf(obj), 1, opts)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// appendValue 核心序列化递归
//
// depth 为当前值的嵌套层级（根 = 1），复合子成员为 depth+1。
// 分发顺序: null → 值树直通/反射表面值/日期 → 标量 → 环检测 →
// 复合。
func appendValue(dst []byte, rv reflect.Value, depth int, o *fields.Options) ([]byte, error) {
	if !rv.IsValid() {
		return append(dst, "null"...), nil
	}

	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		return appendValue(dst, rv.Elem(), depth, o)
	}

	// 具体类型直通: 值树原样渲染（往返路径），反射表面值与
	// 日期时间降级为带引号的显示串
	if rv.CanInterface() {
		switch x := rv.Interface().(type) {
		case *value.Value:
			return appendTree(dst, x, depth, o)
		case value.Value:
			return appendTree(dst, &x, depth, o)
		case reflect.Type:
			if x == nil {
				return append(dst, "null"...), nil
			}
			return appendQuotedString(dst, x.String()), nil
		case reflect.Value:
			return appendQuotedString(dst, x.Type().String()), nil
		case time.Time:
			return appendQuotedString(dst, x.Format(timeLayout)), nil
		}
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		// 环检测按指针身份、在解引用前进行；只记录复合指向。
		// 零尺寸分配共享同一基地址，身份不可辨且无环可成，不记录
		if et := rv.Type().Elem(); compositeKind(et.Kind()) && et.Size() != 0 {
			p := rv.Pointer()
			if o.Visited(p) {
				return appendCircRef(dst, p), nil
			}
			o.Visit(p)
		}
		return appendValue(dst, rv.Elem(), depth, o)

	case reflect.String:
		return appendQuotedString(dst, rv.String()), nil

	case reflect.Bool:
		if rv.Bool() {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return appendInt(dst, rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return appendUint(dst, rv.Uint()), nil

	case reflect.Float32, reflect.Float64:
		return appendFloat(dst, rv.Float()), nil

	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		// 不可序列化的运行时元数据: 显示串加引号（实用逃生门）
		return appendQuotedString(dst, rv.Type().String()), nil

	case reflect.Slice:
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		// 字节切片是唯一被特判为字符串的可枚举类型: base64
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return appendQuotedString(dst, base64.StdEncoding.EncodeToString(rv.Bytes())), nil
		}
		// 零长切片共享零基地址且无元素可递归，不参与环检测
		if rv.Len() > 0 {
			p := rv.Pointer()
			if o.Visited(p) {
				return appendCircRef(dst, p), nil
			}
			o.Visit(p)
		}
		return appendArray(dst, rv, depth, o)

	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 && rv.CanInterface() {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return appendQuotedString(dst, base64.StdEncoding.EncodeToString(b)), nil
		}
		return appendArray(dst, rv, depth, o)

	case reflect.Map:
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		p := rv.Pointer()
		if o.Visited(p) {
			return appendCircRef(dst, p), nil
		}
		o.Visit(p)
		return appendMap(dst, rv, depth, o)

	case reflect.Struct:
		return appendStruct(dst, rv, depth, o)

	default:
		// complex 等其余原语: 不变显示串，加引号
		if rv.CanInterface() {
			return appendQuotedString(dst, fmt.Sprint(rv.Interface())), nil
		}
		return appendQuotedString(dst, rv.String()), nil
	}
}

// compositeKind 指向此类值的指针参与环检测
func compositeKind(k reflect.Kind) bool {
	switch k {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array, reflect.Interface, reflect.Pointer:
		return true
	}
	return false
}

// ─── 复合渲染 ───

// appendStruct 结构体 → 有序名值映射
//
// 经 fields 解析器扁平化，include/exclude/非导出策略在此生效；
// TypeKey 非空时注入合成首字段承载形态名。
func appendStruct(dst []byte, rv reflect.Value, depth int, o *fields.Options) ([]byte, error) {
	if depth > MaxDepth {
		return dst, &RecursionError{Depth: depth}
	}
	dst = append(dst, '{')
	if o.TypeKey != "" {
		dst = appendPrefix(dst, depth, o.Pretty)
		dst = appendQuotedString(dst, o.TypeKey)
		dst = append(dst, ':', ' ')
		dst = appendQuotedString(dst, shapeName(rv.Type()))
		dst = append(dst, ',')
	}
	for _, d := range fields.Resolve(rv.Type()) {
		d := d
		if !o.Visible(&d) {
			continue
		}
		fv, ok := extract(&d, rv)
		if !ok {
			// 访问器抛出: 该字段整体省略
			continue
		}
		dst = appendPrefix(dst, depth, o.Pretty)
		dst = appendQuotedString(dst, o.NameOf(&d))
		dst = append(dst, ':', ' ')
		var err error
		dst, err = appendValue(dst, fv, depth+1, o)
		if err != nil {
			return dst, err
		}
		dst = append(dst, ',')
	}
	return closeComposite(dst, '}', depth, o.Pretty), nil
}

// appendMap 字典 → JSON 对象（键强转字符串并排序保证确定性输出）
func appendMap(dst []byte, rv reflect.Value, depth int, o *fields.Options) ([]byte, error) {
	if depth > MaxDepth {
		return dst, &RecursionError{Depth: depth}
	}
	keys := rv.MapKeys()
	strKeys := make([]string, len(keys))
	keyOf := make(map[string]reflect.Value, len(keys))
	for i, k := range keys {
		s := fmt.Sprint(k.Interface())
		strKeys[i] = s
		keyOf[s] = k
	}
	sort.Strings(strKeys)

	dst = append(dst, '{')
	for _, s := range strKeys {
		dst = appendPrefix(dst, depth, o.Pretty)
		dst = appendQuotedString(dst, s)
		dst = append(dst, ':', ' ')
		var err error
		dst, err = appendValue(dst, rv.MapIndex(keyOf[s]), depth+1, o)
		if err != nil {
			return dst, err
		}
		dst = append(dst, ',')
	}
	return closeComposite(dst, '}', depth, o.Pretty), nil
}

// appendArray 可枚举 → JSON 数组
func appendArray(dst []byte, rv reflect.Value, depth int, o *fields.Options) ([]byte, error) {
	if depth > MaxDepth {
		return dst, &RecursionError{Depth: depth}
	}
	dst = append(dst, '[')
	n := rv.Len()
	for i := 0; i < n; i++ {
		dst = appendPrefix(dst, depth, o.Pretty)
		var err error
		dst, err = appendValue(dst, rv.Index(i), depth+1, o)
		if err != nil {
			return dst, err
		}
		dst = append(dst, ',')
	}
	return closeComposite(dst, ']', depth, o.Pretty), nil
}

// appendTree 值树直通渲染（decode 产物原样回写）
func appendTree(dst []byte, v *value.Value, depth int, o *fields.Options) ([]byte, error) {
	if v.IsNull() {
		return append(dst, "null"...), nil
	}
	switch v.Kind() {
	case value.KindBool:
		if v.BoolVal() {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil
	case value.KindNumber:
		// 原始字面量原样输出（精度无损往返）
		return append(dst, v.Raw()...), nil
	case value.KindString:
		return appendQuotedString(dst, v.Str()), nil
	case value.KindArray:
		if depth > MaxDepth {
			return dst, &RecursionError{Depth: depth}
		}
		dst = append(dst, '[')
		for i := 0; i < v.Len(); i++ {
			dst = appendPrefix(dst, depth, o.Pretty)
			var err error
			dst, err = appendTree(dst, v.At(i), depth+1, o)
			if err != nil {
				return dst, err
			}
			dst = append(dst, ',')
		}
		return closeComposite(dst, ']', depth, o.Pretty), nil
	case value.KindObject:
		if depth > MaxDepth {
			return dst, &RecursionError{Depth: depth}
		}
		dst = append(dst, '{')
		for _, k := range v.Keys() {
			dst = appendPrefix(dst, depth, o.Pretty)
			dst = appendQuotedString(dst, k)
			dst = append(dst, ':', ' ')
			var err error
			dst, err = appendTree(dst, v.Member(k), depth+1, o)
			if err != nil {
				return dst, err
			}
			dst = append(dst, ',')
		}
		return closeComposite(dst, '}', depth, o.Pretty), nil
	}
	return append(dst, "null"...), nil
}

// ─── 格式化 ───

// appendPrefix 成员前缀: 美化时换行 + 4 空格 × 深度缩进
func appendPrefix(dst []byte, depth int, pretty bool) []byte {
	if !pretty {
		return dst
	}
	dst = append(dst, '\n')
	for i := 0; i < depth; i++ {
		dst = append(dst, "    "...)
	}
	return dst
}

// closeComposite 去掉末尾分隔符后闭合（append-then-trim）
//
// 空复合恒定输出 "{ }" / "[ ]"，不受美化开关影响。
func closeComposite(dst []byte, closer byte, depth int, pretty bool) []byte {
	if n := len(dst); n > 0 && dst[n-1] == ',' {
		dst = dst[:n-1]
	} else {
		return append(dst, ' ', closer)
	}
	if pretty {
		dst = append(dst, '\n')
		for i := 0; i < depth-1; i++ {
			dst = append(dst, "    "...)
		}
	}
	return append(dst, closer)
}

// appendCircRef 环引用哨兵: {"$circref": "<身份散列>"}
func appendCircRef(dst []byte, p uintptr) []byte {
	dst = append(dst, `{"$circref": "`...)
	dst = strconv.AppendUint(dst, uint64(p), 16)
	return append(dst, `"}`...)
}

// shapeName 形态名（匿名类型退化到完整类型串）
func shapeName(t reflect.Type) string {
	if n := t.Name(); n != "" {
		return n
	}
	return t.String()
}

// extract 单字段提取（best-effort: panic → 省略该字段）
func extract(d *fields.Descriptor, rv reflect.Value) (fv reflect.Value, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return d.Get(rv), true
}

// ─── 字符串转义 ───

// appendQuotedString 追加带引号的 JSON 字符串
//
// 转义集与解析器互为镜像: \" \\ \/ \b \t \n \f \r，
// 其余 U+0020 以下控制字符输出 \u00XX。
func appendQuotedString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	// 快速路径: 无需转义
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == '"' || c == '\\' || c == '/' {
			return appendQuotedStringSlow(dst, s)
		}
	}
	dst = append(dst, s...)
	return append(dst, '"')
}

func appendQuotedStringSlow(dst []byte, s string) []byte {
	// dst 已包含开头的 "
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			dst = append(dst, '\\', '"')
		case c == '\\':
			dst = append(dst, '\\', '\\')
		case c == '/':
			dst = append(dst, '\\', '/')
		case c == '\b':
			dst = append(dst, '\\', 'b')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\f':
			dst = append(dst, '\\', 'f')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		case c < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hexDigit[c>>4], hexDigit[c&0xF])
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}

var hexDigit = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd', 'e', 'f'}

// ─── 数字序列化 ───

// appendInt 快速 int64 追加（小整数查表路径）
func appendInt(dst []byte, v int64) []byte {
	if v >= 0 && v < 100 {
		return appendSmallInt(dst, int(v))
	}
	return strconv.AppendInt(dst, v, 10)
}

// appendUint 快速 uint64 追加
func appendUint(dst []byte, v uint64) []byte {
	if v < 100 {
		return appendSmallInt(dst, int(v))
	}
	return strconv.AppendUint(dst, v, 10)
}

// appendSmallInt 小整数快速路径（0-99）
func appendSmallInt(dst []byte, v int) []byte {
	if v < 10 {
		return append(dst, byte('0'+v))
	}
	return append(dst, byte('0'+v/10), byte('0'+v%10))
}

// appendFloat 浮点输出（不变文化: 点号小数，无分组符）
func appendFloat(dst []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		// JSON 不支持 NaN/Inf，输出 null
		return append(dst, "null"...)
	}
	if f == math.Trunc(f) && f >= -1e15 && f <= 1e15 {
		return appendInt(dst, int64(f))
	}
	return strconv.AppendFloat(dst, f, 'f', -1, 64)
}
