package query

import (
	"fmt"
	"strings"

	"github.com/xandalm/contacts-query/utils"
)

// Direction specifies the direction for sorting.
type Direction string

// Supported sort directions.
const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// ParseDirection accepts asc/desc in any case. An empty string is ascending.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", DirectionAsc:
		return DirectionAsc, nil
	case DirectionDesc:
		return DirectionDesc, nil
	default:
		return "", newError(ErrMalformedOrder, "", s, "direction must be asc or desc")
	}
}

// OrderSpec orders results by one field.
type OrderSpec struct {
	Field     string
	Direction Direction
}

func (s OrderSpec) String() string {
	return s.Field + " " + string(s.Direction)
}

func (s OrderSpec) normalize() (OrderSpec, error) {
	if strings.TrimSpace(s.Field) == "" {
		return OrderSpec{}, newError(ErrMalformedOrder, "", "", "field is required")
	}
	dir, err := ParseDirection(string(s.Direction))
	if err != nil {
		return OrderSpec{}, err
	}
	return OrderSpec{Field: s.Field, Direction: dir}, nil
}

// orderInput is the shape clients send. fieldName/sortOrder are the API names;
// field/direction are accepted as well.
type orderInput struct {
	FieldName string `json:"fieldName"`
	SortOrder string `json:"sortOrder"`
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// ParseOrderToken parses "field" or "field:direction".
func ParseOrderToken(token string) (OrderSpec, error) {
	field, dir, _ := strings.Cut(token, ":")
	return OrderSpec{Field: strings.TrimSpace(field), Direction: Direction(dir)}.normalize()
}

// ParseOrderBy accepts one order specification or an ordered sequence of them,
// as an OrderSpec, a decoded JSON object, or a "field:direction" token. The
// result keeps input order and always carries an explicit direction.
func ParseOrderBy(src any) ([]OrderSpec, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []OrderSpec:
		out := make([]OrderSpec, 0, len(v))
		for _, s := range v {
			n, err := s.normalize()
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case []string:
		out := make([]OrderSpec, 0, len(v))
		for _, token := range v {
			n, err := ParseOrderToken(token)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case []any:
		out := make([]OrderSpec, 0, len(v))
		for _, item := range v {
			if _, nested := item.([]any); nested {
				return nil, newError(ErrMalformedOrder, "", "", "nested order lists are not supported")
			}
			specs, err := ParseOrderBy(item)
			if err != nil {
				return nil, err
			}
			out = append(out, specs...)
		}
		return out, nil
	case []map[string]any:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return ParseOrderBy(items)
	}

	spec, err := parseOrderSpec(src)
	if err != nil {
		return nil, err
	}
	return []OrderSpec{spec}, nil
}

func parseOrderSpec(src any) (OrderSpec, error) {
	switch v := src.(type) {
	case OrderSpec:
		return v.normalize()
	case *OrderSpec:
		if v == nil {
			return OrderSpec{}, newError(ErrMalformedOrder, "", "", "null order")
		}
		return v.normalize()
	case string:
		return ParseOrderToken(v)
	case map[string]any:
		in, err := utils.MapToStruct[orderInput](v)
		if err != nil {
			return OrderSpec{}, newError(ErrMalformedOrder, "", "", err.Error())
		}
		field, dir := in.FieldName, in.SortOrder
		if field == "" {
			field = in.Field
		}
		if dir == "" {
			dir = in.Direction
		}
		return OrderSpec{Field: field, Direction: Direction(dir)}.normalize()
	default:
		return OrderSpec{}, newError(ErrMalformedOrder, "", fmt.Sprint(v), fmt.Sprintf("unsupported order type %T", v))
	}
}
