package sqlmapper

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

const tagName = "db"

var (
	ErrNotStruct    = errors.New("sqlmapper: entity must be a struct")
	ErrNoPrimaryKey = errors.New("sqlmapper: entity needs exactly one pk column")
	ErrKeyType      = errors.New("sqlmapper: key type does not match pk field")
)

type tabler interface {
	TableName() string
}

type field struct {
	column string
	index  []int
	typ    reflect.Type
	pk     bool
	auto   bool
}

type entityMeta struct {
	table    string
	fields   []*field
	byColumn map[string]*field
	pk       *field
}

func (m *entityMeta) columns() []string {
	cols := make([]string, 0, len(m.fields))
	for _, f := range m.fields {
		cols = append(cols, f.column)
	}
	return cols
}

// registry caches parsed entity metadata keyed by struct type.
type registry struct {
	lock  sync.RWMutex
	metas map[reflect.Type]*entityMeta
}

var defaultRegistry = &registry{metas: make(map[reflect.Type]*entityMeta, 16)}

func (r *registry) get(typ reflect.Type) (*entityMeta, error) {
	r.lock.RLock()
	m, ok := r.metas[typ]
	r.lock.RUnlock()
	if ok {
		return m, nil
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	if m, ok = r.metas[typ]; ok {
		return m, nil
	}
	m, err := parseMeta(typ)
	if err != nil {
		return nil, err
	}
	r.metas[typ] = m
	return m, nil
}

func parseMeta(typ reflect.Type) (*entityMeta, error) {
	if typ.Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}

	m := &entityMeta{
		table:    underscoreName(typ.Name()),
		byColumn: make(map[string]*field, typ.NumField()),
	}
	if t, ok := reflect.New(typ).Interface().(tabler); ok {
		m.table = t.TableName()
	}

	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, ok := sf.Tag.Lookup(tagName)
		if tag == "-" {
			continue
		}
		f := &field{index: sf.Index, typ: sf.Type}
		if ok {
			parts := strings.Split(tag, ",")
			f.column = strings.TrimSpace(parts[0])
			for _, opt := range parts[1:] {
				switch strings.TrimSpace(opt) {
				case "pk":
					f.pk = true
				case "auto":
					f.auto = true
				default:
					return nil, fmt.Errorf("sqlmapper: invalid tag option %q on %s.%s", opt, typ.Name(), sf.Name)
				}
			}
		}
		if f.column == "" {
			f.column = underscoreName(sf.Name)
		}
		if f.pk {
			if m.pk != nil {
				return nil, ErrNoPrimaryKey
			}
			m.pk = f
		}
		m.fields = append(m.fields, f)
		m.byColumn[f.column] = f
	}

	if m.pk == nil {
		return nil, ErrNoPrimaryKey
	}
	return m, nil
}

// underscoreName converts CamelCase to snake_case, keeping acronyms together ("UserID" -> "user_id").
func underscoreName(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
