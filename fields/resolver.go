// Package fields 提供目标形态的具名槽位发现与进程级缓存
//
// Resolve 对给定 reflect.Type 发现全部可读实例字段（含非导出，
// 见 Descriptor），按声明顺序返回描述符表。结果按类型身份缓存
// 进程生命周期，永不失效（类型在进程内不可变）。
//
// 并发纪律: 缓存为并发安全的读多写少 map，竞争填充时
// first-writer-wins；singleflight 合并同类型的重复构建
// （重复计算可接受，损坏不可接受）。
//
// 过滤策略（include/exclude/非导出开关）不进缓存，由 Options
// 在使用点对完整描述符表做事后收窄。序列化（encode）、转换
// （convert）与 CSV 写出（csvx）共享同一份缓存。
package fields

import (
	"reflect"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

var (
	cache sync.Map           // reflect.Type → []Descriptor
	group singleflight.Group // 合并并发构建
)

// Resolve 返回 t 的有序描述符表（memoized）
//
// t 必须是结构体类型；其余类型返回 nil。
func Resolve(t reflect.Type) []Descriptor {
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	if c, ok := cache.Load(t); ok {
		return c.([]Descriptor)
	}
	ds, _, _ := group.Do(typeKey(t), func() (any, error) {
		if c, ok := cache.Load(t); ok {
			return c, nil
		}
		built := build(t, nil)
		cache.Store(t, built)
		return built, nil
	})
	return ds.([]Descriptor)
}

// typeKey singleflight 键（PkgPath 区分同名异包类型）
func typeKey(t reflect.Type) string {
	return t.PkgPath() + "." + t.String()
}

// build 构建描述符表
//
// 匿名嵌入的结构体字段展开为父级槽位（索引路径拼接），
// 显式打了 tag 的嵌入字段按普通槽位处理。
func build(t reflect.Type, prefix []int) []Descriptor {
	ds := make([]Descriptor, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := make([]int, 0, len(prefix)+1)
		index = append(append(index, prefix...), i)

		tag := f.Tag.Get("knit")
		if f.Anonymous && f.Type.Kind() == reflect.Struct && tag == "" {
			ds = append(ds, build(f.Type, index)...)
			continue
		}

		d := Descriptor{
			Name:     f.Name,
			Exported: f.IsExported(),
			Index:    index,
			Type:     f.Type,
		}
		switch {
		case tag == "-":
			d.Ignored = true
		case tag != "":
			// "alias,opt" 形态只取别名部分
			if c := strings.IndexByte(tag, ','); c >= 0 {
				tag = tag[:c]
			}
			d.Alias = tag
		}
		ds = append(ds, d)
	}
	return ds
}
