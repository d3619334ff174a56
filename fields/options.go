package fields

// Options 单次顶层 Serialize/Deserialize 调用的参数束
//
// 贯穿序列化与转换两条路径。每次顶层调用构造独立实例，
// 严禁跨并发调用共享: visited 集只在一棵调用树内存活，
// 顶层调用返回即废弃。
type Options struct {
	// Pretty 美化输出（每成员一行，4 空格 × 深度缩进）
	Pretty bool

	// TypeKey 类型标记键。非空时在结构体输出头部注入
	// 一个合成字段，值为形态名；空 = 不注入。
	TypeKey string

	// Include 允许列表。非空时只保留点名的槽位。
	Include []string

	// Exclude 排除列表。与注解派生的忽略集取并集:
	// knit:"-" 的槽位无法被调用方复活。
	Exclude []string

	// IncludeNonPublic 是否访问非导出槽位。
	// 读路径（序列化）与写路径（转换）统一受此开关把关。
	IncludeNonPublic bool

	// NameStyle 无显式别名时的命名风格转换。
	NameStyle NameStyle

	// visited 本次调用树内已进入的复合对象身份集。
	// 仅序列化使用（值树无环，转换不需要）。
	visited map[uintptr]struct{}
}

// NameOf 返回槽位的生效序列化名（别名优先，否则按风格转换字段名）
func (o *Options) NameOf(d *Descriptor) string {
	if d.Alias != "" {
		return d.Alias
	}
	return o.NameStyle.Apply(d.Name)
}

// Visible 槽位是否参与本次调用（包含/排除策略收窄点）
func (o *Options) Visible(d *Descriptor) bool {
	if d.Ignored {
		return false
	}
	if !d.Exported && !o.IncludeNonPublic {
		return false
	}
	name := o.NameOf(d)
	if len(o.Include) > 0 && !contains(o.Include, name) {
		return false
	}
	return !contains(o.Exclude, name)
}

// Visited 对象身份是否已在本调用树中进入过
func (o *Options) Visited(p uintptr) bool {
	_, ok := o.visited[p]
	return ok
}

// Visit 在下降进入复合对象前记录其身份
func (o *Options) Visit(p uintptr) {
	if o.visited == nil {
		o.visited = make(map[uintptr]struct{}, 8)
	}
	o.visited[p] = struct{}{}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
