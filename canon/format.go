package canon

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// typeTag returns the one-character primitive tag: the first letter of the
// variant's type name.
func typeTag(v Variant) byte {
	return variantNames[v][0]
}

// primitiveText renders a primitive value in its plain text form.
func primitiveText(variant Variant, v reflect.Value) string {
	switch variant {
	case VariantNull:
		return "null"
	case VariantUndefined:
		return "undefined"
	case VariantBoolean:
		return strconv.FormatBool(v.Bool())
	case VariantNumber:
		return numberText(v)
	case VariantString:
		return v.String()
	case VariantSymbolic:
		if v.Type() == typeSymbol {
			return "Symbol(" + v.Field(0).String() + ")"
		}
		return "Symbol(" + v.Type().String() + ")"
	case VariantCallable:
		return "function " + v.Type().String()
	}
	return ""
}

func numberText(v reflect.Value) string {
	switch v.Type() {
	case typeJSONNumber:
		return jsonNumberText(json.Number(v.String()))
	case typeBigInt:
		x := v.Interface().(big.Int)
		return x.String()
	case typeBigFloat:
		x := v.Interface().(big.Float)
		return bigFloatText(&x)
	case typeBigRat:
		x := v.Interface().(big.Rat)
		return x.RatString()
	}
	if v.Kind() == reflect.Pointer {
		switch x := v.Interface().(type) {
		case *big.Int:
			return x.String()
		case *big.Float:
			return bigFloatText(x)
		case *big.Rat:
			return x.RatString()
		}
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return floatText(v.Float(), 32)
	case reflect.Float64:
		return floatText(v.Float(), 64)
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		if imag(c) == 0 {
			return floatText(real(c), 64)
		}
		return "(" + floatText(real(c), 64) + "," + floatText(imag(c), 64) + ")"
	}
	return ""
}

// floatText formats f in shortest round-trip form: plain decimal inside
// [1e-6, 1e21), exponent form outside it with no zero padding (1e+21, 1e-7).
func floatText(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, bitSize)
	}
	return trimExponent(strconv.FormatFloat(f, 'e', -1, bitSize))
}

// trimExponent rewrites "1.5e-07" as "1.5e-7".
func trimExponent(s string) string {
	mant, exp, ok := strings.Cut(s, "e")
	if !ok || exp == "" {
		return s
	}
	sign := exp[0]
	exp = strings.TrimLeft(exp[1:], "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + string(sign) + exp
}

// jsonNumberText renders n like the Go number it denotes: integers that fit
// int64 or uint64 exactly, larger integer literals as big integers, anything
// else as a float64.
func jsonNumberText(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return strconv.FormatUint(u, 10)
	}
	if i, ok := new(big.Int).SetString(n.String(), 10); ok {
		return i.String()
	}
	if f, err := n.Float64(); err == nil {
		return floatText(f, 64)
	}
	return n.String()
}

var (
	bigFloatLow  = big.NewFloat(1e-6)
	bigFloatHigh = big.NewFloat(1e21)
)

// bigFloatText renders x like a float64 when it holds one exactly, like a
// big integer when it is integral, and otherwise at its own precision with
// the float64 notation rules.
func bigFloatText(x *big.Float) string {
	if x.IsInf() {
		if x.Sign() > 0 {
			return "Infinity"
		}
		return "-Infinity"
	}
	if f, acc := x.Float64(); acc == big.Exact {
		return floatText(f, 64)
	}
	if x.IsInt() {
		i, _ := x.Int(nil)
		return i.String()
	}
	abs := new(big.Float).Abs(x)
	if abs.Cmp(bigFloatLow) >= 0 && abs.Cmp(bigFloatHigh) < 0 {
		return x.Text('f', -1)
	}
	return trimExponent(x.Text('e', -1))
}

func dateText(t time.Time) string {
	ms := t.UnixMilli()
	rem := t.Sub(time.UnixMilli(ms))
	if rem < 0 {
		ms--
		rem += time.Millisecond
	}
	s := strconv.FormatInt(ms, 10)
	if rem == 0 {
		return s
	}
	frac := strconv.FormatInt(int64(rem)+1_000_000, 10)[1:]
	return s + "." + strings.TrimRight(frac, "0")
}
