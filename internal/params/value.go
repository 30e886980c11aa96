// Package params содержит типизированные значения параметров и
// четырёхуровневое разрешение параметров вызова.
package params

import (
	"fmt"
	"math"
	"strconv"
)

// Kind описывает тип значения параметра
type Kind uint8

const (
	KindNone Kind = iota
	KindNumber
	KindString
	KindBool
)

// String возвращает строковое представление типа
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "none"
	}
}

// Value - значение параметра: число, строка или флаг.
// Нулевое значение Value означает отсутствие значения (KindNone).
type Value struct {
	kind Kind
	num  float64
	str  string
	flag bool
}

// Number создаёт числовое значение
func Number(v float64) Value {
	return Value{kind: KindNumber, num: v}
}

// Millis создаёт числовое значение из миллисекунд
func Millis(ms int64) Value {
	return Value{kind: KindNumber, num: float64(ms)}
}

// String создаёт строковое значение
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Bool создаёт логическое значение
func Bool(b bool) Value {
	return Value{kind: KindBool, flag: b}
}

// Kind возвращает тип значения
func (v Value) Kind() Kind {
	return v.kind
}

// IsSet сообщает, содержит ли Value значение
func (v Value) IsSet() bool {
	return v.kind != KindNone
}

// Number возвращает число, если значение числовое и конечное
func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber || math.IsNaN(v.num) || math.IsInf(v.num, 0) {
		return 0, false
	}
	return v.num, true
}

// Text возвращает строку, если значение строковое
func (v Value) Text() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Flag возвращает флаг, если значение логическое
func (v Value) Flag() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.flag, true
}

// Any возвращает значение в виде interface{} (для логов и JSON)
func (v Value) Any() interface{} {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindBool:
		return v.flag
	default:
		return nil
	}
}

// GoString используется в %#v и в сообщениях тестов
func (v Value) GoString() string {
	switch v.kind {
	case KindNumber:
		return "params.Number(" + strconv.FormatFloat(v.num, 'g', -1, 64) + ")"
	case KindString:
		return "params.String(" + strconv.Quote(v.str) + ")"
	case KindBool:
		return "params.Bool(" + strconv.FormatBool(v.flag) + ")"
	default:
		return "params.Value{}"
	}
}

// FromAny преобразует декодированное из YAML/JSON значение в Value.
// Поддерживаются числа, строки и bool; всё остальное - ошибка.
func FromAny(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{}, fmt.Errorf("пустое значение параметра")
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case int32:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case uint32:
		return Number(float64(x)), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	default:
		return Value{}, fmt.Errorf("неподдерживаемый тип параметра %T", raw)
	}
}
