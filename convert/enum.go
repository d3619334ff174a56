package convert

import (
	"reflect"
	"sync"
)

// 枚举名↔值查询表（显式注册制）
//
// Go 没有运行时枚举元数据，符号名解析走进程级注册表:
// 调用方对每个枚举类型注册一次名→值映射，转换层按符号名
// （大小写敏感）落值，反向表供 CSV 等文本输出反查符号名。

var (
	enumRegistry sync.Map // reflect.Type → map[string]reflect.Value
	enumReverse  sync.Map // reflect.Type → map[int64]string
)

// RegisterEnum 注册枚举类型的符号名映射
//
// 重复注册整体覆盖。用法:
//
//	type Color int
//	const ( Red Color = iota; Green; Blue )
//	convert.RegisterEnum(map[string]Color{"Red": Red, "Green": Green, "Blue": Blue})
func RegisterEnum[E any](names map[string]E) {
	t := reflect.TypeFor[E]()
	m := make(map[string]reflect.Value, len(names))
	r := make(map[int64]string, len(names))
	for name, v := range names {
		rv := reflect.ValueOf(v)
		m[name] = rv
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			r[rv.Int()] = name
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			r[int64(rv.Uint())] = name
		}
	}
	enumRegistry.Store(t, m)
	enumReverse.Store(t, r)
}

// enumOf 返回类型的名→值表
func enumOf(t reflect.Type) (map[string]reflect.Value, bool) {
	m, ok := enumRegistry.Load(t)
	if !ok {
		return nil, false
	}
	return m.(map[string]reflect.Value), true
}

// EnumName 反查枚举值的符号名
func EnumName(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	m, ok := enumReverse.Load(rv.Type())
	if !ok {
		return "", false
	}
	var n int64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n = int64(rv.Uint())
	default:
		return "", false
	}
	name, ok := m.(map[int64]string)[n]
	return name, ok
}
