package csvx

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniyakcom/knit/decode"
	"github.com/uniyakcom/knit/fields"
)

type person struct {
	Name   string `knit:"name"`
	Age    int
	Email  string
	Token  string `knit:"-"`
	joined time.Time
}

// TestHeader 表头来自字段解析器顺序与过滤策略
func TestHeader(t *testing.T) {
	h := Header(reflect.TypeOf(person{}), nil)
	assert.Equal(t, []string{"name", "Age", "Email"}, h)

	h = Header(reflect.TypeOf(person{}), &fields.Options{Exclude: []string{"Email"}})
	assert.Equal(t, []string{"name", "Age"}, h)

	h = Header(reflect.TypeOf(person{}), &fields.Options{NameStyle: fields.StyleSnake})
	assert.Equal(t, []string{"name", "age", "email"}, h)
}

// TestWriteRead 写出再读回，最小往返
func TestWriteRead(t *testing.T) {
	in := []person{
		{Name: "yak", Age: 3, Email: "y@x", Token: "drop-me"},
		{Name: "ox", Age: 5, Email: "o@x"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,Age,Email", lines[0])
	assert.Equal(t, "yak,3,y@x", lines[1])
	assert.NotContains(t, buf.String(), "drop-me")

	var out []person
	require.NoError(t, Read(&buf, &out, nil))
	require.Len(t, out, 2)
	assert.Equal(t, "yak", out[0].Name)
	assert.Equal(t, 3, out[0].Age)
	assert.Equal(t, "o@x", out[1].Email)
	assert.Empty(t, out[1].Token)
}

// TestWritePointerRows 指针元素与 nil 行
func TestWritePointerRows(t *testing.T) {
	in := []*person{
		{Name: "a", Age: 1},
		nil,
		{Name: "b", Age: 2},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// nil 行跳过
	require.Len(t, lines, 3)
	assert.Equal(t, "a,1,", lines[1])
	assert.Equal(t, "b,2,", lines[2])
}

// TestWriteTimeCell 日期时间单元格输出 ISO-8601 秒精度
func TestWriteTimeCell(t *testing.T) {
	type shift struct {
		Start time.Time
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []shift{{Start: time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)}}, nil))
	assert.Contains(t, buf.String(), "2026-08-23T09:00:00")
}

// TestWriteRejectsNonSlice 非切片/非结构体元素报错
func TestWriteRejectsNonSlice(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, 42, nil))
	assert.Error(t, Write(&buf, []int{1}, nil))
	var nilRecords *[]person
	assert.Error(t, Write(&buf, nilRecords, nil))
}

// TestReadBestEffort 不可解析的单元格退化为零值，其余行不受影响
func TestReadBestEffort(t *testing.T) {
	src := "name,Age,Email\nyak,not-a-number,y@x\nox,5,o@x\n"
	var out []person
	require.NoError(t, Read(strings.NewReader(src), &out, nil))
	require.Len(t, out, 2)
	assert.Equal(t, "yak", out[0].Name)
	assert.Zero(t, out[0].Age)
	assert.Equal(t, 5, out[1].Age)
}

// TestReadPointerSlice *[]*T 形态
func TestReadPointerSlice(t *testing.T) {
	src := "name,Age,Email\nyak,3,y@x\n"
	var out []*person
	require.NoError(t, Read(strings.NewReader(src), &out, nil))
	require.Len(t, out, 1)
	assert.Equal(t, "yak", out[0].Name)
}

// TestReadEmpty 空输入与仅表头
func TestReadEmpty(t *testing.T) {
	var out []person
	require.NoError(t, Read(strings.NewReader(""), &out, nil))
	assert.Empty(t, out)
	require.NoError(t, Read(strings.NewReader("name,Age,Email\n"), &out, nil))
	assert.Empty(t, out)
}

// TestReadRejectsBadTarget 目标必须是 *[]T / *[]*T
func TestReadRejectsBadTarget(t *testing.T) {
	assert.Error(t, Read(strings.NewReader("a\n1\n"), []person{}, nil))
	var m map[string]int
	assert.Error(t, Read(strings.NewReader("a\n1\n"), &m, nil))
	var ints []int
	assert.Error(t, Read(strings.NewReader("a\n1\n"), &ints, nil))
}

// TestWriteValues 值树对象数组 → CSV，表头取首个对象键序
func TestWriteValues(t *testing.T) {
	v, err := decode.Parse(`[{"name": "yak", "age": 3}, {"name": "ox", "age": 5}, {"name": "solo"}]`)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteValues(&buf, v))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "name,age", lines[0])
	assert.Equal(t, "yak,3", lines[1])
	assert.Equal(t, "ox,5", lines[2])
	// 缺失成员留空
	assert.Equal(t, "solo,", lines[3])
}

// TestWriteValuesRejectsNonArray 根必须是数组
func TestWriteValuesRejectsNonArray(t *testing.T) {
	v, err := decode.Parse(`{"not": "an array"}`)
	require.NoError(t, err)
	var buf bytes.Buffer
	assert.Error(t, WriteValues(&buf, v))
}
