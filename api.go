// Package knit 统一API入口
//
// knit 是一个手写 JSON 引擎: 字符级递归下降解析器（文本 → 通用
// 值树）、反射序列化器（任意对象图 → 文本，含环检测）、以及值树
// 与强类型对象之间的双向结构转换层。
//
// 数据流:
//
//	文本 --Deserialize--> 值树 --As/Into--> 类型化对象
//	类型化对象 --Serialize--> 文本
//
// 字段解析器（fields）被转换与序列化两侧共享，按类型缓存进程
// 生命周期。单次调用同步单线程完成，无内部并行；多文档并发
// 见 batch 包。
//
// 用法:
//
//	s, _ := knit.Serialize(user, knit.Pretty())
//	v, _ := knit.Deserialize(`{"name":"yak"}`)
//	u, _ := knit.As[User](`{"name":"yak"}`)
package knit

import (
	"github.com/uniyakcom/knit/convert"
	"github.com/uniyakcom/knit/decode"
	"github.com/uniyakcom/knit/encode"
	"github.com/uniyakcom/knit/fields"
	"github.com/uniyakcom/knit/value"
)

// Value 导出值树类型
type Value = value.Value

// Kind 导出值类型标记
type Kind = value.Kind

// Options 导出序列化选项束
type Options = fields.Options

// NameStyle 导出命名风格
type NameStyle = fields.NameStyle

// ParseError 导出解析错误
type ParseError = decode.ParseError

// RecursionError 导出递归深度错误
type RecursionError = encode.RecursionError

// 值类型常量
const (
	KindNull   = value.KindNull
	KindBool   = value.KindBool
	KindNumber = value.KindNumber
	KindString = value.KindString
	KindObject = value.KindObject
	KindArray  = value.KindArray
)

// 命名风格常量
const (
	StyleNone   = fields.StyleNone
	StyleSnake  = fields.StyleSnake
	StyleCamel  = fields.StyleCamel
	StylePascal = fields.StylePascal
	StyleKebab  = fields.StyleKebab
)

// Option 序列化/转换选项
type Option func(*Options)

// Pretty 美化输出（每成员一行，4 空格 × 深度缩进）
func Pretty() Option {
	return func(o *Options) { o.Pretty = true }
}

// WithTypeKey 在结构体输出头部注入类型标记字段
func WithTypeKey(key string) Option {
	return func(o *Options) { o.TypeKey = key }
}

// WithNonPublic 访问非导出槽位（读写两侧统一生效）
func WithNonPublic() Option {
	return func(o *Options) { o.IncludeNonPublic = true }
}

// Include 只保留点名的字段（允许列表；空 = 放行全部）
func Include(names ...string) Option {
	return func(o *Options) { o.Include = append(o.Include, names...) }
}

// Exclude 排除点名的字段（与 knit:"-" 注解忽略取并集）
func Exclude(names ...string) Option {
	return func(o *Options) { o.Exclude = append(o.Exclude, names...) }
}

// WithNameStyle 无显式别名时的字段命名风格
func WithNameStyle(st NameStyle) Option {
	return func(o *Options) { o.NameStyle = st }
}

// newOptions 每次顶层调用构造独立选项实例（visited 集不跨调用）
func newOptions(opts []Option) *Options {
	o := &Options{}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// ─── 值树构造 ───

// NewObject 创建空对象值
func NewObject() *Value { return value.NewObject() }

// NewArray 创建空数组值
func NewArray() *Value { return value.NewArray() }

// NewNull 创建 null 值
func NewNull() *Value { return value.Null() }

// NewBool 创建布尔值
func NewBool(b bool) *Value { return value.Bool(b) }

// NewString 创建字符串值
func NewString(s string) *Value { return value.String(s) }

// NewNumber 以原始字面量创建数字值
func NewNumber(lit string) *Value { return value.Number(lit) }

// NewInt 创建整数值
func NewInt(n int64) *Value { return value.Int(n) }

// NewFloat 创建浮点值
func NewFloat(f float64) *Value { return value.Float(f) }

// ─── 序列化 ───

// Serialize 将对象图序列化为 JSON 文本
//
// 复合嵌套超过 20 层返回 RecursionError；环引用输出
// {"$circref": "<id>"} 哨兵。
func Serialize(v any, opts ...Option) (string, error) {
	return encode.Marshal(v, newOptions(opts))
}

// SerializeOnly 只序列化点名的字段
func SerializeOnly(v any, pretty bool, names ...string) (string, error) {
	return encode.Marshal(v, &Options{Pretty: pretty, Include: names})
}

// SerializeExcluding 序列化时排除点名的字段
func SerializeExcluding(v any, pretty bool, names ...string) (string, error) {
	return encode.Marshal(v, &Options{Pretty: pretty, Exclude: names})
}

// ─── 反序列化 ───

// Deserialize 将 JSON 文本解析为通用值树
//
// 根必须是对象或数组；任何语法违规返回携带行列号的 *ParseError。
func Deserialize(text string) (*Value, error) {
	return decode.Parse(text)
}

// As 将 JSON 文本反序列化为 T 的新实例
//
// 解析错误致命返回；转换阶段 best-effort，形态不匹配退化为
// 零值而不报错。
func As[T any](text string, opts ...Option) (T, error) {
	v, err := decode.Parse(text)
	if err != nil {
		var zero T
		return zero, err
	}
	return convert.As[T](v, newOptions(opts)), nil
}

// Into 将 JSON 文本反序列化到已有实例（target 须为非 nil 指针）
func Into(text string, target any, opts ...Option) error {
	v, err := decode.Parse(text)
	if err != nil {
		return err
	}
	convert.Into(v, target, newOptions(opts))
	return nil
}
