// Package convert 提供值树 → 强类型对象图的结构转换
//
// 转换是 best-effort 的: 任何单字段/单元素失败都被就地吞掉并
// 跳过该项，绝不中断外层对象的处理 —— 残缺对象优于整体失败。
// 形态不匹配、不可解析的标量、构造失败一律退化到目标类型的
// 零值，错误不会从转换层逃逸（致命错误只存在于解析路径）。
//
// 值树由解析器构建、天然无环，转换层不需要环检测
// （环防护只属于序列化路径）。
//
// 用法:
//
//	v, _ := decode.Parse(`{"Name":"knit","Tags":["a","b"]}`)
//	cfg := convert.As[Config](v, &fields.Options{})
package convert

import (
	"encoding/base64"
	"reflect"
	"strconv"
	"strings"

	"github.com/uniyakcom/knit/fields"
	"github.com/uniyakcom/knit/value"
)

// As 将值树转换为 T 的新实例
//
// 默认构造新实例（失败退化为零值），再逐槽位填充。
func As[T any](v *value.Value, opts *fields.Options) T {
	var out T
	Into(v, &out, opts)
	return out
}

// Into 将值树写入已有实例
//
// target 必须是非 nil 指针，否则 no-op。
func Into(v *value.Value, target any, opts *fields.Options) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return
	}
	if opts == nil {
		opts = &fields.Options{}
	}
	apply(v, rv.Elem(), opts)
}

// Apply 将值树写入 reflect 目标（组合层入口，csvx 复用）
func Apply(v *value.Value, target reflect.Value, opts *fields.Options) {
	if opts == nil {
		opts = &fields.Options{}
	}
	apply(v, target, opts)
}

// apply 核心递归: 按 (源值类型, 目标形态) 二元组分发
func apply(v *value.Value, rv reflect.Value, o *fields.Options) {
	if !rv.IsValid() {
		return
	}
	// 指针链: 自动分配并解引用
	for rv.Kind() == reflect.Pointer {
		if v.IsNull() {
			safely(func() { rv.SetZero() })
			return
		}
		if rv.IsNil() {
			if !rv.CanSet() {
				return
			}
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}
	if v.IsNull() {
		safely(func() { rv.SetZero() })
		return
	}

	switch v.Kind() {
	case value.KindObject:
		applyObject(v, rv, o)
	case value.KindArray:
		applyArray(v, rv, o)
	default:
		applyScalar(v, rv)
	}
}

// applyObject 对象 → 字典 / 结构体 / any
func applyObject(v *value.Value, rv reflect.Value, o *fields.Options) {
	switch rv.Kind() {
	case reflect.Map:
		keyT := rv.Type().Key()
		valT := rv.Type().Elem()
		if rv.IsNil() {
			if !rv.CanSet() {
				return
			}
			rv.Set(reflect.MakeMapWithSize(rv.Type(), v.Len()))
		}
		v.ObjectEach(func(k string, ev *value.Value) bool {
			// 单条目失败跳过，不影响其余条目
			safely(func() {
				elem := reflect.New(valT).Elem()
				apply(ev, elem, o)
				rv.SetMapIndex(reflect.ValueOf(k).Convert(keyT), elem)
			})
			return true
		})

	case reflect.Struct:
		for _, d := range fields.Resolve(rv.Type()) {
			d := d
			if !o.Visible(&d) {
				continue
			}
			src := v.Member(o.NameOf(&d))
			if src == nil {
				// 缺失键: 槽位保持当前/默认值
				continue
			}
			safely(func() {
				elem := reflect.New(d.Type).Elem()
				apply(src, elem, o)
				d.Set(rv, elem)
			})
		}

	case reflect.Interface:
		if rv.Type().NumMethod() == 0 {
			safely(func() { rv.Set(reflect.ValueOf(generic(v))) })
		}
	}
}

// applyArray 数组 → 定长序列 / 可增序列 / any
func applyArray(v *value.Value, rv reflect.Value, o *fields.Options) {
	switch rv.Kind() {
	case reflect.Array:
		// 定长: 按位转换，越界与单元素失败逐个跳过
		n := rv.Len()
		v.ArrayEach(func(i int, ev *value.Value) bool {
			if i >= n {
				return false
			}
			safely(func() { apply(ev, rv.Index(i), o) })
			return true
		})

	case reflect.Slice:
		elemT := rv.Type().Elem()
		out := reflect.MakeSlice(rv.Type(), 0, v.Len())
		v.ArrayEach(func(_ int, ev *value.Value) bool {
			safely(func() {
				elem := reflect.New(elemT).Elem()
				apply(ev, elem, o)
				out = reflect.Append(out, elem)
			})
			return true
		})
		safely(func() { rv.Set(out) })

	case reflect.Interface:
		if rv.Type().NumMethod() == 0 {
			safely(func() { rv.Set(reflect.ValueOf(generic(v))) })
		}
	}
}

// applyScalar 标量 → 原语类型
//
// 目标原语解析失败一律落到零值，绝不抛出。
func applyScalar(v *value.Value, rv reflect.Value) {
	// 字符串 → 字节切片: base64 解码，失败 fallback 到 UTF-8 字节
	if v.Kind() == value.KindString && rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		b, err := base64.StdEncoding.DecodeString(v.Str())
		if err != nil {
			b = []byte(v.Str())
		}
		safely(func() { rv.SetBytes(b) })
		return
	}

	// 字符串 → 定长字节数组: 同一 base64 策略，按位复制（长度不符截断/留零）
	if v.Kind() == value.KindString && rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b, err := base64.StdEncoding.DecodeString(v.Str())
		if err != nil {
			b = []byte(v.Str())
		}
		safely(func() { reflect.Copy(rv, reflect.ValueOf(b)) })
		return
	}

	// 注册过的枚举类型: 按符号名落值（大小写敏感），未知名 → 零值
	if names, ok := enumOf(rv.Type()); ok && v.Kind() == value.KindString {
		if ev, found := names[v.Str()]; found {
			safely(func() { rv.Set(ev) })
		} else {
			safely(func() { rv.SetZero() })
		}
		return
	}

	switch rv.Kind() {
	case reflect.Bool:
		if v.Kind() == value.KindBool {
			rv.SetBool(v.BoolVal())
			return
		}
		b, err := strconv.ParseBool(v.Text())
		if err != nil {
			b = false
		}
		safely(func() { rv.SetBool(b) })

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := scalarInt(v)
		if rv.OverflowInt(n) {
			n = 0
		}
		safely(func() { rv.SetInt(n) })

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := scalarInt(v)
		if n < 0 || rv.OverflowUint(uint64(n)) {
			n = 0
		}
		safely(func() { rv.SetUint(uint64(n)) })

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(v.Text(), 64)
		if err != nil {
			f = 0
		}
		safely(func() { rv.SetFloat(f) })

	case reflect.String:
		safely(func() { rv.SetString(v.Text()) })

	case reflect.Interface:
		if rv.Type().NumMethod() == 0 {
			safely(func() { rv.Set(reflect.ValueOf(generic(v))) })
		}
	}
}

// scalarInt 标量的整数形态（数字字面量优先，其余解析文本）
func scalarInt(v *value.Value) int64 {
	if v.Kind() == value.KindNumber {
		if n, err := v.Int64(); err == nil {
			return n
		}
		return 0
	}
	if n, err := strconv.ParseInt(v.Text(), 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v.Text(), 64); err == nil {
		return int64(f)
	}
	return 0
}

// generic 值树 → 无类型 Go 形态（any 目标）
//
// 对象落为 map[string]any（通用形态不保序），数组落为 []any，
// 整数字面量优先落 int64，其余数字落 float64。
func generic(v *value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.BoolVal()
	case value.KindString:
		return v.Str()
	case value.KindNumber:
		if !strings.ContainsAny(v.Raw(), ".eE") {
			if n, err := v.Int64(); err == nil {
				return n
			}
		}
		f, _ := v.Float64()
		return f
	case value.KindArray:
		arr := make([]any, 0, v.Len())
		v.ArrayEach(func(_ int, ev *value.Value) bool {
			arr = append(arr, generic(ev))
			return true
		})
		return arr
	case value.KindObject:
		m := make(map[string]any, v.Len())
		v.ObjectEach(func(k string, ev *value.Value) bool {
			m[k] = generic(ev)
			return true
		})
		return m
	}
	return nil
}

// safely 单项 best-effort 边界: 吞掉 panic，跳过该项
//
// 只包住最小的单字段/单元素操作，不得包住整个对象处理，
// 更不得渗入解析路径（解析必须 fatal-on-error）。
func safely(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
