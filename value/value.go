// Package value 提供 JSON 通用值树（中间表示）
//
// Value 是解析与序列化之间的唯一中间形态: null / bool / number /
// string / object / array 的封闭变体。对象成员保持插入顺序
// （有序 kv 切片而非 map），保证序列化输出稳定。
//
// 设计要点:
//   - 数字以原始字面量字符串存储（延迟解析），整数与浮点数
//     都能按位往返，不丢精度
//   - 树为一次写入: 解析期（decode）或扁平化期（encode）构建，
//     之后只读；所有子节点归属于父节点，无共享
//
// 用法:
//
//	obj := value.NewObject()
//	obj.Set("name", value.String("knit"))
//	obj.Set("ver", value.Int(1))
//	obj.Member("name").Str() // "knit"
package value

// Kind JSON 值类型
type Kind uint8

const (
	KindNull   Kind = iota // null
	KindBool               // true / false
	KindNumber             // 整数或浮点数（原始字面量）
	KindString             // 字符串
	KindObject             // 对象（有序成员）
	KindArray              // 数组
)

// String 返回类型名称
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value JSON 值（封闭变体）
//
// 字段布局沿用 o/a/s/n/k/b 模式: 对象成员、数组子值、字符串、
// 数字原始字面量、类型标记、布尔值各占独立字段，按 Kind 取用。
type Value struct {
	m []Member // KindObject: 有序成员
	a []*Value // KindArray: 子值
	s string   // KindString: 已解转义的字符串
	n string   // KindNumber: 原始数字字面量
	k Kind     // 值类型
	b bool     // KindBool: 布尔值
}

// Member 对象成员（保持 JSON 中的字段顺序）
type Member struct {
	Key string
	Val *Value
}

// ─── 构造 ───

// Null 创建 null 值
func Null() *Value { return &Value{k: KindNull} }

// Bool 创建布尔值
func Bool(b bool) *Value { return &Value{k: KindBool, b: b} }

// Number 以原始字面量创建数字值
//
// 字面量不做校验，调用方保证其为合法 JSON 数字
// （decode 在扫描阶段已校验）。
func Number(lit string) *Value { return &Value{k: KindNumber, n: lit} }

// Int 创建整数值
func Int(n int64) *Value { return &Value{k: KindNumber, n: formatInt(n)} }

// Float 创建浮点值
func Float(f float64) *Value { return &Value{k: KindNumber, n: formatFloat(f)} }

// String 创建字符串值
func String(s string) *Value { return &Value{k: KindString, s: s} }

// NewObject 创建空对象
func NewObject() *Value { return &Value{k: KindObject} }

// NewArray 创建空数组
func NewArray() *Value { return &Value{k: KindArray} }

// ─── 类型判断 ───

// Kind 返回值类型
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.k
}

// IsNull 是否为 null
func (v *Value) IsNull() bool { return v == nil || v.k == KindNull }

// IsObject 是否为对象
func (v *Value) IsObject() bool { return v != nil && v.k == KindObject }

// IsArray 是否为数组
func (v *Value) IsArray() bool { return v != nil && v.k == KindArray }

// ─── 值获取（安全: 类型不匹配返回零值） ───

// Str 返回字符串值
func (v *Value) Str() string {
	if v == nil || v.k != KindString {
		return ""
	}
	return v.s
}

// BoolVal 返回布尔值
func (v *Value) BoolVal() bool {
	if v == nil || v.k != KindBool {
		return false
	}
	return v.b
}

// Raw 返回数字的原始字面量（仅 KindNumber）
func (v *Value) Raw() string {
	if v == nil || v.k != KindNumber {
		return ""
	}
	return v.n
}

// Int64 将数字字面量解析为 int64
func (v *Value) Int64() (int64, error) {
	if v == nil || v.k != KindNumber {
		return 0, errNotNumber
	}
	return parseInt(v.n)
}

// Float64 将数字字面量解析为 float64
func (v *Value) Float64() (float64, error) {
	if v == nil || v.k != KindNumber {
		return 0, errNotNumber
	}
	return parseFloat(v.n)
}

// Text 返回值的文本形态（转换层的标量入口）
//
// string 返回自身，number 返回原始字面量，bool 返回 true/false，
// null 与复合类型返回空串。
func (v *Value) Text() string {
	if v == nil {
		return ""
	}
	switch v.k {
	case KindString:
		return v.s
	case KindNumber:
		return v.n
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// ─── 复合访问 ───

// Len 返回数组或对象的元素数量
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.k {
	case KindArray:
		return len(v.a)
	case KindObject:
		return len(v.m)
	default:
		return 0
	}
}

// At 返回数组第 i 个元素，越界返回 nil
func (v *Value) At(i int) *Value {
	if v == nil || v.k != KindArray || i < 0 || i >= len(v.a) {
		return nil
	}
	return v.a[i]
}

// Member 在对象中查找 key（线性扫描，JSON 对象通常字段少）
func (v *Value) Member(key string) *Value {
	if v == nil || v.k != KindObject {
		return nil
	}
	for i := range v.m {
		if v.m[i].Key == key {
			return v.m[i].Val
		}
	}
	return nil
}

// Keys 按插入顺序返回对象的所有键
func (v *Value) Keys() []string {
	if v == nil || v.k != KindObject {
		return nil
	}
	keys := make([]string, len(v.m))
	for i := range v.m {
		keys[i] = v.m[i].Key
	}
	return keys
}

// Set 写入对象成员
//
// 键已存在时覆盖其值（last-write-wins），键的位置保持不变；
// 新键追加到末尾。非对象值上调用为 no-op。
func (v *Value) Set(key string, val *Value) {
	if v == nil || v.k != KindObject {
		return
	}
	for i := range v.m {
		if v.m[i].Key == key {
			v.m[i].Val = val
			return
		}
	}
	v.m = append(v.m, Member{Key: key, Val: val})
}

// Append 追加数组元素。非数组值上调用为 no-op。
func (v *Value) Append(val *Value) {
	if v == nil || v.k != KindArray {
		return
	}
	v.a = append(v.a, val)
}

// ObjectEach 按插入顺序遍历对象成员，返回 false 停止遍历
func (v *Value) ObjectEach(fn func(key string, val *Value) bool) {
	if v == nil || v.k != KindObject {
		return
	}
	for i := range v.m {
		if !fn(v.m[i].Key, v.m[i].Val) {
			return
		}
	}
}

// ArrayEach 遍历数组元素，返回 false 停止遍历
func (v *Value) ArrayEach(fn func(i int, val *Value) bool) {
	if v == nil || v.k != KindArray {
		return
	}
	for i, elem := range v.a {
		if !fn(i, elem) {
			return
		}
	}
}

// ─── 比较 ───

// Equal 深度比较两棵值树
//
// 数字按数值比较（"1.50" 与 "1.5" 相等），对象按成员顺序
// 与内容比较（顺序是值树语义的一部分）。
func (v *Value) Equal(o *Value) bool {
	if v.IsNull() || o.IsNull() {
		return v.IsNull() && o.IsNull()
	}
	if v.k != o.k {
		return false
	}
	switch v.k {
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindNumber:
		return numEqual(v.n, o.n)
	case KindArray:
		if len(v.a) != len(o.a) {
			return false
		}
		for i := range v.a {
			if !v.a[i].Equal(o.a[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.m) != len(o.m) {
			return false
		}
		for i := range v.m {
			if v.m[i].Key != o.m[i].Key || !v.m[i].Val.Equal(o.m[i].Val) {
				return false
			}
		}
		return true
	}
	return false
}

// numEqual 数字字面量按数值比较，解析失败退化为字面量比较
func numEqual(a, b string) bool {
	if a == b {
		return true
	}
	fa, ea := parseFloat(a)
	fb, eb := parseFloat(b)
	return ea == nil && eb == nil && fa == fb
}
