package csvx

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/uniyakcom/knit/value"
)

// WriteValues 将对象数组值树写为 CSV
//
// 表头取首个对象的键序（值树保持 JSON 字段顺序），后续行按
// 表头取成员，缺失成员留空。非对象元素跳过。
func WriteValues(w io.Writer, v *value.Value) error {
	if !v.IsArray() {
		return fmt.Errorf("csvx: root must be an array of objects, got %s", v.Kind())
	}
	cw := csv.NewWriter(w)
	var header []string
	for i := 0; i < v.Len(); i++ {
		obj := v.At(i)
		if !obj.IsObject() {
			continue
		}
		if header == nil {
			header = obj.Keys()
			if err := cw.Write(header); err != nil {
				return err
			}
		}
		cells := make([]string, len(header))
		for j, k := range header {
			cells[j] = obj.Member(k).Text()
		}
		if err := cw.Write(cells); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
