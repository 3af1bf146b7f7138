package entry

import (
	"fmt"
	"reflect"
)

// Output envelope field names.
const (
	valueField = "Value"
	errorField = "Error"
)

// inputEnvelope builds a struct with one field per parameter, in order,
// tagged with the parameter name. Pointer parameters are optional.
func inputEnvelope(params []Param, types []reflect.Type) reflect.Type {
	fields := make([]reflect.StructField, len(params))
	for i, p := range params {
		tag := p.Name
		if types[i].Kind() == reflect.Pointer {
			tag += ",omitempty"
		}
		fields[i] = reflect.StructField{
			Name: fmt.Sprintf("P%d", i),
			Type: types[i],
			Tag:  reflect.StructTag(fmt.Sprintf(`json:%q`, tag)),
		}
	}
	return reflect.StructOf(fields)
}

// requiredFields lists the envelope keys a call must supply: every
// parameter that is not a pointer.
func requiredFields(params []Param, types []reflect.Type) []string {
	var names []string
	for i, p := range params {
		if types[i].Kind() != reflect.Pointer {
			names = append(names, p.Name)
		}
	}
	return names
}

// outputEnvelope builds {value: T} and, for fallible functions, an optional
// error string alongside it.
func outputEnvelope(value reflect.Type, fallible bool) reflect.Type {
	fields := []reflect.StructField{{
		Name: valueField,
		Type: value,
		Tag:  `json:"value"`,
	}}
	if fallible {
		fields = append(fields, reflect.StructField{
			Name: errorField,
			Type: reflect.TypeOf(""),
			Tag:  `json:"error,omitempty"`,
		})
	}
	return reflect.StructOf(fields)
}

// frame is the wire form of a workflow result.
type frame struct {
	State string `json:"state"`
	Value any    `json:"value,omitempty"`
}
