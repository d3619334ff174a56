package fields

import "github.com/iancoleman/strcase"

// NameStyle 无显式别名时的字段命名风格
type NameStyle uint8

const (
	StyleNone   NameStyle = iota // 原样使用 Go 字段名
	StyleSnake                   // user_name
	StyleCamel                   // userName
	StylePascal                  // UserName
	StyleKebab                   // user-name
)

// Apply 按风格转换字段名
func (st NameStyle) Apply(name string) string {
	switch st {
	case StyleSnake:
		return strcase.ToSnake(name)
	case StyleCamel:
		return strcase.ToLowerCamel(name)
	case StylePascal:
		return strcase.ToCamel(name)
	case StyleKebab:
		return strcase.ToKebab(name)
	default:
		return name
	}
}
