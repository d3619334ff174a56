// Package csvx 提供结构体切片 ⇄ CSV 的行式读写
//
// 与 JSON 引擎共享同一个字段解析器（fields）: 表头来自解析器的
// 槽位顺序，include/exclude/命名风格策略原样生效。读入路径把每
// 行包装为字符串值树后复用 convert 的 best-effort 标量转换，
// 单格失败退化为零值而非中断整个文件。
package csvx

import (
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/uniyakcom/knit/convert"
	"github.com/uniyakcom/knit/fields"
	"github.com/uniyakcom/knit/value"
)

// Header 返回 t 的 CSV 表头（解析器顺序 + 过滤策略收窄）
func Header(t reflect.Type, opts *fields.Options) []string {
	if opts == nil {
		opts = &fields.Options{}
	}
	ds := fields.Resolve(t)
	hs := make([]string, 0, len(ds))
	for i := range ds {
		if opts.Visible(&ds[i]) {
			hs = append(hs, opts.NameOf(&ds[i]))
		}
	}
	return hs
}

// Write 将结构体切片写为 CSV（首行表头）
func Write(w io.Writer, records any, opts *fields.Options) error {
	rv := reflect.ValueOf(records)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return fmt.Errorf("csvx: nil records")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("csvx: records must be a slice, got %s", rv.Kind())
	}
	elemT := rv.Type().Elem()
	for elemT.Kind() == reflect.Pointer {
		elemT = elemT.Elem()
	}
	if elemT.Kind() != reflect.Struct {
		return fmt.Errorf("csvx: record type must be a struct, got %s", elemT)
	}
	if opts == nil {
		opts = &fields.Options{}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header(elemT, opts)); err != nil {
		return err
	}
	ds := fields.Resolve(elemT)
	for i := 0; i < rv.Len(); i++ {
		row := rv.Index(i)
		for row.Kind() == reflect.Pointer || row.Kind() == reflect.Interface {
			if row.IsNil() {
				break
			}
			row = row.Elem()
		}
		if row.Kind() != reflect.Struct {
			continue
		}
		cells := make([]string, 0, len(ds))
		for j := range ds {
			if !opts.Visible(&ds[j]) {
				continue
			}
			cells = append(cells, cell(&ds[j], row))
		}
		if err := cw.Write(cells); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// cell 单元格文本（best-effort: 提取失败留空）
func cell(d *fields.Descriptor, row reflect.Value) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	iv := d.Get(row).Interface()
	if t, ok := iv.(time.Time); ok {
		return t.Format("2006-01-02T15:04:05")
	}
	// 注册过的枚举输出符号名
	if name, ok := convert.EnumName(iv); ok {
		return name
	}
	return fmt.Sprint(iv)
}

// Read 从 CSV 读入结构体切片（首行表头）
//
// out 必须是 *[]T 或 *[]*T（T 为结构体）。每行按表头名映射到
// 槽位，单元格经转换层落值，不可解析的单元格退化为零值。
func Read(r io.Reader, out any, opts *fields.Options) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("csvx: out must be a non-nil pointer to slice")
	}
	sl := rv.Elem()
	if sl.Kind() != reflect.Slice {
		return fmt.Errorf("csvx: out must point to a slice, got %s", sl.Kind())
	}
	elemT := sl.Type().Elem()
	baseT := elemT
	asPtr := false
	if baseT.Kind() == reflect.Pointer {
		baseT = baseT.Elem()
		asPtr = true
	}
	if baseT.Kind() != reflect.Struct {
		return fmt.Errorf("csvx: element type must be a struct, got %s", baseT)
	}
	if opts == nil {
		opts = &fields.Options{}
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		// 行 → 字符串值树，复用转换层的标量落值策略
		obj := value.NewObject()
		for i, name := range header {
			if i >= len(rec) {
				break
			}
			obj.Set(name, value.String(rec[i]))
		}
		elem := reflect.New(baseT)
		convert.Apply(obj, elem.Elem(), opts)
		if asPtr {
			sl.Set(reflect.Append(sl, elem))
		} else {
			sl.Set(reflect.Append(sl, elem.Elem()))
		}
	}
	return nil
}
