package fhir

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
)

// XMLCodec reads and writes the FHIR XML representation. Element names come
// from the json tags of the wire structs, primitives travel in a value
// attribute, lists are repeated elements and fields tagged fhir:"attr" are
// written as attributes of their parent.
type XMLCodec struct{}

func (XMLCodec) MediaType() string { return MediaTypeXML }

func (XMLCodec) Encode(r Resource) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := encodeResource(enc, r, true); err != nil {
		return nil, fmt.Errorf("encode xml %s: %w", r.ResourceType(), err)
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (XMLCodec) Decode(data []byte) (Resource, error) {
	root, err := parseXML(data)
	if err != nil {
		return nil, fmt.Errorf("decode xml resource: %w", err)
	}
	r, err := NewResource(root.name)
	if err != nil {
		return nil, err
	}
	if err := decodeStruct(root, reflect.ValueOf(r).Elem()); err != nil {
		return nil, fmt.Errorf("decode xml %s: %w", root.name, err)
	}
	return r, nil
}

type xmlField struct {
	name  string
	index []int
	attr  bool
}

// fieldsOf flattens embedded structs so their elements appear in place.
func fieldsOf(t reflect.Type) []xmlField {
	var out []xmlField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			for _, inner := range fieldsOf(f.Type) {
				inner.index = append([]int{i}, inner.index...)
				out = append(out, inner)
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out = append(out, xmlField{name: name, index: []int{i}, attr: f.Tag.Get("fhir") == "attr"})
	}
	return out
}

func encodeResource(enc *xml.Encoder, r Resource, root bool) error {
	start := xml.StartElement{Name: xml.Name{Local: r.ResourceType()}}
	if root {
		start.Name.Space = Namespace
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if err := encodeFields(enc, reflect.ValueOf(r).Elem()); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

func encodeFields(enc *xml.Encoder, v reflect.Value) error {
	for _, f := range fieldsOf(v.Type()) {
		if f.attr {
			continue
		}
		if err := encodeValue(enc, f.name, v.FieldByIndex(f.index), false); err != nil {
			return err
		}
	}
	return nil
}

func encodeValue(enc *xml.Encoder, name string, v reflect.Value, inList bool) error {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return encodeValue(enc, name, v.Elem(), true)
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		r, ok := v.Interface().(Resource)
		if !ok {
			return fmt.Errorf("element %s: %T is not a resource", name, v.Interface())
		}
		start := xml.StartElement{Name: xml.Name{Local: name}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		if err := encodeResource(enc, r, false); err != nil {
			return err
		}
		return enc.EncodeToken(start.End())
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if err := encodeValue(enc, name, v.Index(i), true); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		start := xml.StartElement{Name: xml.Name{Local: name}}
		for _, f := range fieldsOf(v.Type()) {
			if !f.attr {
				continue
			}
			if s, ok := primitiveText(v.FieldByIndex(f.index)); ok && s != "" {
				start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: f.name}, Value: s})
			}
		}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		if err := encodeFields(enc, v); err != nil {
			return err
		}
		return enc.EncodeToken(start.End())
	}

	s, ok := primitiveText(v)
	if !ok {
		return fmt.Errorf("element %s: unsupported kind %s", name, v.Kind())
	}
	// List members and explicitly set pointers keep their position even
	// when empty; plain empty strings mean "absent".
	if s == "" && !inList {
		return nil
	}
	start := xml.StartElement{
		Name: xml.Name{Local: name},
		Attr: []xml.Attr{{Name: xml.Name{Local: "value"}, Value: s}},
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

func primitiveText(v reflect.Value) (string, bool) {
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.Int, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	}
	return "", false
}

type xmlNode struct {
	name     string
	attrs    map[string]string
	children []*xmlNode
}

func parseXML(data []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var stack []*xmlNode
	var root *xmlNode
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if root == nil {
		return nil, errors.New("empty document")
	}
	return root, nil
}

func decodeStruct(n *xmlNode, v reflect.Value) error {
	fields := fieldsOf(v.Type())
	byName := make(map[string]xmlField, len(fields))
	for _, f := range fields {
		if f.attr {
			if s, ok := n.attrs[f.name]; ok {
				if err := setPrimitive(v.FieldByIndex(f.index), s); err != nil {
					return fmt.Errorf("attribute %s: %w", f.name, err)
				}
			}
			continue
		}
		byName[f.name] = f
	}
	for _, child := range n.children {
		f, ok := byName[child.name]
		if !ok {
			continue
		}
		if err := decodeValue(child, v.FieldByIndex(f.index)); err != nil {
			return fmt.Errorf("element %s: %w", child.name, err)
		}
	}
	return nil
}

func decodeValue(n *xmlNode, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return decodeValue(n, v.Elem())
	case reflect.Slice:
		elem := reflect.New(v.Type().Elem()).Elem()
		if err := decodeValue(n, elem); err != nil {
			return err
		}
		v.Set(reflect.Append(v, elem))
		return nil
	case reflect.Struct:
		return decodeStruct(n, v)
	case reflect.Interface:
		if len(n.children) != 1 {
			return errors.New("expected exactly one contained resource")
		}
		inner := n.children[0]
		r, err := NewResource(inner.name)
		if err != nil {
			return err
		}
		if err := decodeStruct(inner, reflect.ValueOf(r).Elem()); err != nil {
			return err
		}
		v.Set(reflect.ValueOf(r))
		return nil
	}
	return setPrimitive(v, n.attrs["value"])
}

func setPrimitive(v reflect.Value, s string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(i)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}
