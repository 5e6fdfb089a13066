package validation

import (
	"reflect"
	"strings"
)

// fieldName берёт имя поля из json, а для конфигурации из mapstructure
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "mapstructure"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return fld.Name
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}
