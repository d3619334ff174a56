package fields

import (
	"reflect"
	"unsafe"
)

// Descriptor 目标形态上一个具名槽位的缓存元数据
//
// 每个槽位记录逻辑名、显式别名（knit tag）、忽略标记与 reflect
// 索引路径。访问器 Get/Set 覆盖导出与非导出字段: 非导出字段
// 通过 unsafe 取址读写（值类型形态没有访问器可用，只能走原始
// 存储字段）。是否真正访问非导出槽位由 Options.IncludeNonPublic
// 在使用点统一把关，缓存本身总是完整发现。
type Descriptor struct {
	Name     string       // Go 字段名
	Alias    string       // knit tag 显式别名（"" 表示无）
	Ignored  bool         // knit:"-"
	Exported bool         // 是否导出
	Index    []int        // reflect 字段索引路径（嵌入展开后）
	Type     reflect.Type // 字段类型
}

// SerializedName 返回序列化名: 显式别名优先，否则字段名
//
// 命名风格转换（NameStyle）在 Options.NameOf 中叠加。
func (d *Descriptor) SerializedName() string {
	if d.Alias != "" {
		return d.Alias
	}
	return d.Name
}

// Get 读取实例上该槽位的值
//
// rv 必须是结构体值。非导出字段通过 NewAt+unsafe 绕过访问检查；
// 不可寻址的实例（接口拆箱产物）先复制到可寻址副本。
func (d *Descriptor) Get(rv reflect.Value) reflect.Value {
	if !rv.CanAddr() {
		tmp := reflect.New(rv.Type()).Elem()
		tmp.Set(rv)
		rv = tmp
	}
	fv := rv.FieldByIndex(d.Index)
	if fv.CanInterface() {
		return fv
	}
	return reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
}

// Set 写入实例上该槽位的值
//
// rv 必须是可寻址的结构体值。类型不匹配或路径非法时 panic，
// 由调用方的 best-effort 恢复层兜住（单字段失败不致命）。
func (d *Descriptor) Set(rv reflect.Value, val reflect.Value) {
	fv := rv.FieldByIndex(d.Index)
	if !fv.CanSet() {
		fv = reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
	}
	fv.Set(val)
}
