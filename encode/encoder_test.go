package encode

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/uniyakcom/knit/decode"
	"github.com/uniyakcom/knit/fields"
)

func marshal(t *testing.T, obj any, opts *fields.Options) string {
	t.Helper()
	s, err := Marshal(obj, opts)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	return s
}

// TestStructCompact 紧凑输出：键后冒号空格，成员间无空格
func TestStructCompact(t *testing.T) {
	type pair struct {
		One string
		Two string
	}
	got := marshal(t, pair{One: "One", Two: "Two"}, nil)
	want := `{"One": "One","Two": "Two"}`
	if got != want {
		t.Errorf("Marshal = %q, want %q", got, want)
	}
}

// TestEmptyComposites 空对象/空数组恒定输出 { } / [ ]
func TestEmptyComposites(t *testing.T) {
	cases := []struct {
		obj  any
		want string
	}{
		{struct{}{}, "{ }"},
		{[]int{}, "[ ]"},
		{map[string]int{}, "{ }"},
		{[0]int{}, "[ ]"},
	}
	for _, c := range cases {
		if got := marshal(t, c.obj, nil); got != c.want {
			t.Errorf("Marshal(%T) = %q, want %q", c.obj, got, c.want)
		}
	}
	// 美化开关不影响空复合
	if got := marshal(t, struct{}{}, &fields.Options{Pretty: true}); got != "{ }" {
		t.Errorf("pretty empty = %q, want %q", got, "{ }")
	}
}

// TestPretty 美化输出：每成员一行，4 空格 × 深度缩进
func TestPretty(t *testing.T) {
	type inner struct {
		X int
	}
	type outer struct {
		A int
		B inner
	}
	got := marshal(t, outer{A: 1, B: inner{X: 2}}, &fields.Options{Pretty: true})
	want := "{\n    \"A\": 1,\n    \"B\": {\n        \"X\": 2\n    }\n}"
	if got != want {
		t.Errorf("pretty = %q, want %q", got, want)
	}
}

// TestScalars 标量与 nil 形态
func TestScalars(t *testing.T) {
	type box struct {
		S  string
		B  bool
		I  int
		U  uint
		F  float64
		P  *int
		Sl []int
		M  map[string]int
	}
	got := marshal(t, box{S: "x", B: true, I: -5, U: 200, F: 1.5}, nil)
	want := `{"S": "x","B": true,"I": -5,"U": 200,"F": 1.5,"P": null,"Sl": null,"M": null}`
	if got != want {
		t.Errorf("Marshal = %q, want %q", got, want)
	}

	if got := marshal(t, nil, nil); got != "null" {
		t.Errorf("Marshal(nil) = %q, want null", got)
	}
}

// TestFloatForms 整值浮点无小数点，NaN/Inf 落 null
func TestFloatForms(t *testing.T) {
	type f struct {
		A, B, C float64
	}
	got := marshal(t, f{A: 3, B: 2.25, C: math.NaN()}, nil)
	want := `{"A": 3,"B": 2.25,"C": null}`
	if got != want {
		t.Errorf("floats = %q, want %q", got, want)
	}
}

// TestStringEscaping 输出转义：引号、反斜杠、斜杠与控制字符
func TestStringEscaping(t *testing.T) {
	type s struct {
		V string
	}
	got := marshal(t, s{V: "a\"b\\c/d\ne\x01f"}, nil)
	want := `{"V": "a\"b\\c\/d\ne\u0001f"}`
	if got != want {
		t.Errorf("escaped = %q, want %q", got, want)
	}
}

// TestBytesBase64 []byte 与 [N]byte 输出 base64 字符串
func TestBytesBase64(t *testing.T) {
	type b struct {
		Data []byte
		Arr  [2]byte
	}
	got := marshal(t, b{Data: []byte("hi"), Arr: [2]byte{'h', 'i'}}, nil)
	want := `{"Data": "aGk=","Arr": "aGk="}`
	if got != want {
		t.Errorf("base64 = %q, want %q", got, want)
	}
}

// TestTimeISO 日期时间输出 ISO-8601 秒精度
func TestTimeISO(t *testing.T) {
	type ev struct {
		At time.Time
	}
	at := time.Date(2026, 8, 23, 10, 30, 0, 999, time.UTC)
	got := marshal(t, ev{At: at}, nil)
	want := `{"At": "2026-08-23T10:30:00"}`
	if got != want {
		t.Errorf("time = %q, want %q", got, want)
	}
}

// TestMapSortedKeys 字典键强转字符串并排序，输出确定
func TestMapSortedKeys(t *testing.T) {
	got := marshal(t, map[string]int{"b": 2, "a": 1, "c": 3}, nil)
	want := `{"a": 1,"b": 2,"c": 3}`
	if got != want {
		t.Errorf("map = %q, want %q", got, want)
	}

	got = marshal(t, map[int]string{2: "two", 10: "ten"}, nil)
	want = `{"10": "ten","2": "two"}`
	if got != want {
		t.Errorf("int-keyed map = %q, want %q", got, want)
	}
}

// TestFilterOptions include/exclude 与命名风格
func TestFilterOptions(t *testing.T) {
	type user struct {
		UserName string
		Email    string
		Token    string `knit:"-"`
	}
	u := user{UserName: "yak", Email: "y@x", Token: "s3cret"}

	got := marshal(t, u, &fields.Options{Include: []string{"Email"}})
	if got != `{"Email": "y@x"}` {
		t.Errorf("include = %q", got)
	}

	got = marshal(t, u, &fields.Options{Exclude: []string{"Email"}})
	if got != `{"UserName": "yak"}` {
		t.Errorf("exclude = %q", got)
	}

	got = marshal(t, u, &fields.Options{NameStyle: fields.StyleSnake})
	if got != `{"user_name": "yak","email": "y@x"}` {
		t.Errorf("snake = %q", got)
	}
}

// TestNonPublicRead 非导出槽位默认省略，IncludeNonPublic 打开读路径
func TestNonPublicRead(t *testing.T) {
	type mixed struct {
		Pub string
		pri int
	}
	m := mixed{Pub: "x", pri: 7}
	if got := marshal(t, m, nil); got != `{"Pub": "x"}` {
		t.Errorf("default = %q", got)
	}
	if got := marshal(t, m, &fields.Options{IncludeNonPublic: true}); got != `{"Pub": "x","pri": 7}` {
		t.Errorf("non-public = %q", got)
	}
}

// TestTypeKey 类型标记合成首字段
func TestTypeKey(t *testing.T) {
	type node struct {
		V int
	}
	got := marshal(t, node{V: 1}, &fields.Options{TypeKey: "$type"})
	want := `{"$type": "node","V": 1}`
	if got != want {
		t.Errorf("type key = %q, want %q", got, want)
	}
}

type loop struct {
	Name string
	Next *loop
}

// TestCycleSentinel 环引用输出 $circref 哨兵并终止
func TestCycleSentinel(t *testing.T) {
	n := &loop{Name: "a"}
	n.Next = n
	got := marshal(t, n, nil)
	if !strings.Contains(got, `"$circref": "`) {
		t.Errorf("cycle output %q should contain circref sentinel", got)
	}
	if !strings.HasPrefix(got, `{"Name": "a","Next": {"$circref": "`) {
		t.Errorf("cycle output = %q", got)
	}

	// 互指双节点
	a := &loop{Name: "a"}
	b := &loop{Name: "b", Next: a}
	a.Next = b
	got = marshal(t, a, nil)
	if strings.Count(got, "$circref") != 1 {
		t.Errorf("mutual cycle output = %q, want exactly one sentinel", got)
	}
}

// TestSharedNotCycle 同一实例的重复引用（非环）也会被哨兵替代：
// visited 集按身份单调累积，第二次遇到即替换
func TestSharedNotCycle(t *testing.T) {
	shared := &loop{Name: "s"}
	type pair struct {
		L *loop
		R *loop
	}
	got := marshal(t, pair{L: shared, R: shared}, nil)
	if strings.Count(got, "$circref") != 1 {
		t.Errorf("shared reference output = %q, want one sentinel", got)
	}
}

// TestEmptyNoSentinel 零尺寸分配不误判为环：空切片与零尺寸指向
// 共享零基地址，但无元素可递归，必须正常渲染而非输出哨兵
func TestEmptyNoSentinel(t *testing.T) {
	type pair struct {
		A []int
		B []int
	}
	got := marshal(t, pair{A: []int{}, B: []int{}}, nil)
	if got != `{"A": [ ],"B": [ ]}` {
		t.Errorf("empty slices = %q, want %q", got, `{"A": [ ],"B": [ ]}`)
	}

	type void struct{}
	type ptrs struct {
		A *void
		B *void
	}
	got = marshal(t, ptrs{A: &void{}, B: &void{}}, nil)
	if got != `{"A": { },"B": { }}` {
		t.Errorf("zero-size pointees = %q, want %q", got, `{"A": { },"B": { }}`)
	}

	// 同一数组上的两个空切片视图
	backing := [4]int{1, 2, 3, 4}
	views := [][]int{backing[:0], backing[2:2]}
	got = marshal(t, views, nil)
	if got != `[[ ],[ ]]` {
		t.Errorf("empty views = %q, want %q", got, `[[ ],[ ]]`)
	}
}

// TestRecursionLimit 嵌套深度护栏：20 层通过，21 层致命
func TestRecursionLimit(t *testing.T) {
	nest := func(levels int) any {
		var cur any = "leaf"
		for i := 0; i < levels; i++ {
			cur = map[string]any{"v": cur}
		}
		return cur
	}

	if _, err := Marshal(nest(MaxDepth), nil); err != nil {
		t.Errorf("depth %d should succeed, got %v", MaxDepth, err)
	}

	_, err := Marshal(nest(MaxDepth+1), nil)
	if err == nil {
		t.Fatalf("depth %d should fail", MaxDepth+1)
	}
	var re *RecursionError
	if !errors.As(err, &re) {
		t.Fatalf("error = %T, want *RecursionError", err)
	}
	if re.Depth != MaxDepth+1 {
		t.Errorf("Depth = %d, want %d", re.Depth, MaxDepth+1)
	}
}

// TestTreePassthrough 值树直通回写：原始数字字面量无损
func TestTreePassthrough(t *testing.T) {
	v, err := decode.Parse(`{"n": 1.50, "arr": [true, null], "s": "x"}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got := marshal(t, v, nil)
	want := `{"n": 1.50,"arr": [true,null],"s": "x"}`
	if got != want {
		t.Errorf("tree = %q, want %q", got, want)
	}
}

// TestRuntimeSurfaces 函数/通道等运行时形态降级为带引号显示串
func TestRuntimeSurfaces(t *testing.T) {
	type odd struct {
		F func() error
		C chan int
	}
	got := marshal(t, odd{}, nil)
	want := `{"F": "func() error","C": "chan int"}`
	if got != want {
		t.Errorf("runtime surfaces = %q, want %q", got, want)
	}
}

// TestEmbedded 匿名嵌入展开为父级字段
func TestEmbedded(t *testing.T) {
	type base struct {
		ID int
	}
	type doc struct {
		base
		Name string
	}
	got := marshal(t, doc{base: base{ID: 9}, Name: "d"}, nil)
	want := `{"ID": 9,"Name": "d"}`
	if got != want {
		t.Errorf("embedded = %q, want %q", got, want)
	}
}
