// Package protoext canonicalizes protocol buffer messages by content.
//
// Well-known types map onto the equivalent native values (Timestamp to an
// instant, Duration to nanoseconds, Struct/Value/ListValue to maps and
// slices, wrappers to the wrapped scalar), so a Timestamp and the time.Time
// it holds canonicalize identically. Any other message renders as
// proto^<full name> followed by a map of its populated fields keyed by
// field name; unknown fields are ignored.
//
// Importing the package registers the extension in canon.Default.
package protoext

import (
	"reflect"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/hashit/canon"
)

func init() {
	if err := Register(canon.Default); err != nil {
		panic(err)
	}
}

// Register installs the proto.Message extension in reg.
func Register(reg *canon.Registry) error {
	return reg.Register(reflect.TypeFor[proto.Message](), canonicalMessage)
}

func canonicalMessage(s *canon.State, v any) error {
	msg := v.(proto.Message)
	if !msg.ProtoReflect().IsValid() {
		return s.Update(nil)
	}
	if native, ok, err := wellKnown(msg); ok || err != nil {
		if err != nil {
			return err
		}
		return s.Update(native)
	}

	m := msg.ProtoReflect()
	s.WriteString("proto^")
	s.WriteString(string(m.Descriptor().FullName()))
	return s.Update(fields(m))
}

func wellKnown(msg proto.Message) (any, bool, error) {
	switch m := msg.(type) {
	case *timestamppb.Timestamp:
		if err := m.CheckValid(); err != nil {
			return nil, true, err
		}
		return m.AsTime(), true, nil
	case *durationpb.Duration:
		if err := m.CheckValid(); err != nil {
			return nil, true, err
		}
		return m.AsDuration().Nanoseconds(), true, nil
	case *structpb.Struct:
		return m.AsMap(), true, nil
	case *structpb.Value:
		return m.AsInterface(), true, nil
	case *structpb.ListValue:
		return m.AsSlice(), true, nil
	case *wrapperspb.BoolValue:
		return m.GetValue(), true, nil
	case *wrapperspb.Int32Value:
		return m.GetValue(), true, nil
	case *wrapperspb.Int64Value:
		return m.GetValue(), true, nil
	case *wrapperspb.UInt32Value:
		return m.GetValue(), true, nil
	case *wrapperspb.UInt64Value:
		return m.GetValue(), true, nil
	case *wrapperspb.FloatValue:
		return m.GetValue(), true, nil
	case *wrapperspb.DoubleValue:
		return m.GetValue(), true, nil
	case *wrapperspb.StringValue:
		return m.GetValue(), true, nil
	case *wrapperspb.BytesValue:
		return m.GetValue(), true, nil
	}
	return nil, false, nil
}

// fields collects the populated fields of m. Nested messages stay
// proto.Message values so they are dispatched back through the registry.
func fields(m protoreflect.Message) map[string]any {
	out := map[string]any{}
	m.Range(func(fd protoreflect.FieldDescriptor, val protoreflect.Value) bool {
		name := string(fd.Name())
		if fd.IsExtension() {
			name = "[" + string(fd.FullName()) + "]"
		}
		out[name] = fieldValue(fd, val)
		return true
	})
	return out
}

func fieldValue(fd protoreflect.FieldDescriptor, val protoreflect.Value) any {
	switch {
	case fd.IsList():
		l := val.List()
		out := make([]any, l.Len())
		for i := range out {
			out[i] = scalar(fd, l.Get(i))
		}
		return out
	case fd.IsMap():
		out := map[any]any{}
		val.Map().Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
			out[k.Interface()] = scalar(fd.MapValue(), v)
			return true
		})
		return out
	}
	return scalar(fd, val)
}

func scalar(fd protoreflect.FieldDescriptor, val protoreflect.Value) any {
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return val.Message().Interface()
	case protoreflect.EnumKind:
		n := val.Enum()
		if ev := fd.Enum().Values().ByNumber(n); ev != nil {
			return string(ev.Name())
		}
		return int32(n)
	}
	return val.Interface()
}
