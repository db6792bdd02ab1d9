// Package gen implements the Go analog of the generated call-site
// contract: a reflection pass over struct tags that wires lazy function
// cells, or callable wrappers around them, into a caller's struct.
package gen

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/ebitengine/purego"

	"github.com/lazydl/dylink/lazyfn"
	"github.com/lazydl/dylink/library"
	"github.com/lazydl/dylink/loader"
	"github.com/lazydl/dylink/vulkan"
)

const tagKey = "dylink"

// TagError describes a malformed dylink struct tag.
type TagError struct {
	Field string
	Tag   string
	Err   error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("gen: field %s: tag %q: %v", e.Field, e.Tag, e.Err)
}

func (e *TagError) Unwrap() error { return e.Err }

var (
	loaderRegistryMu sync.RWMutex
	loaderRegistry   = map[string]loader.Loader{}
)

// RegisterLoader makes backend available to fields whose tag specifies
// linker=name.
func RegisterLoader(name string, backend loader.Loader) {
	loaderRegistryMu.Lock()
	defer loaderRegistryMu.Unlock()
	loaderRegistry[name] = backend
}

func lookupLoader(name string) (loader.Loader, bool) {
	loaderRegistryMu.RLock()
	defer loaderRegistryMu.RUnlock()
	l, ok := loaderRegistry[name]
	return l, ok
}

type options struct {
	name         string
	any          []string
	vulkan       bool
	libraryField string
	strip        bool
	linkName     string
	linker       string
}

func parseTag(raw string) (options, error) {
	opts := options{strip: true}
	if strings.TrimSpace(raw) == "" {
		return opts, fmt.Errorf("empty tag")
	}

	linkage := 0
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "vulkan":
			opts.vulkan = true
			linkage++
		case strings.HasPrefix(part, "name="):
			opts.name = strings.TrimPrefix(part, "name=")
			if opts.name == "" {
				return opts, fmt.Errorf("name= requires a value")
			}
			linkage++
		case strings.HasPrefix(part, "any="):
			val := strings.TrimPrefix(part, "any=")
			if val == "" {
				return opts, fmt.Errorf("any= requires at least one candidate")
			}
			opts.any = strings.Split(val, "|")
			linkage++
		case strings.HasPrefix(part, "library="):
			opts.libraryField = strings.TrimPrefix(part, "library=")
			if opts.libraryField == "" {
				return opts, fmt.Errorf("library= requires a field name")
			}
			linkage++
		case strings.HasPrefix(part, "strip="):
			v, err := strconv.ParseBool(strings.TrimPrefix(part, "strip="))
			if err != nil {
				return opts, fmt.Errorf("strip= requires a bool: %w", err)
			}
			opts.strip = v
		case strings.HasPrefix(part, "link_name="):
			opts.linkName = strings.TrimPrefix(part, "link_name=")
		case strings.HasPrefix(part, "linker="):
			opts.linker = strings.TrimPrefix(part, "linker=")
		case part == "":
			// tolerate trailing commas
		default:
			return opts, fmt.Errorf("unknown tag option %q", part)
		}
	}
	if linkage != 1 {
		return opts, fmt.Errorf("exactly one of vulkan, name=, any=, library= required, got %d", linkage)
	}
	return opts, nil
}

var funcPtrType = reflect.TypeOf((*lazyfn.LazyFn)(nil))

// Wire walks the exported fields of the struct pointed to by dest. Each
// field tagged `dylink:"..."` is resolved into a lazy function cell and,
// depending on the strip option, either written directly (strip=false,
// field type *lazyfn.LazyFn) or used to bind a callable wrapper into a
// func-typed field (strip=true, the default). For strip=true the cell is
// linked during Wire itself, not on the first call of the func field, and
// Wire panics if that link fails.
func Wire(dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("gen: Wire requires a non-nil pointer to struct, got %T", dest)
	}
	structVal := v.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		raw, ok := field.Tag.Lookup(tagKey)
		if !ok {
			continue
		}

		opts, err := parseTag(raw)
		if err != nil {
			return &TagError{Field: field.Name, Tag: raw, Err: err}
		}

		policy, err := resolvePolicy(structVal, opts)
		if err != nil {
			return &TagError{Field: field.Name, Tag: raw, Err: err}
		}

		symbol := field.Name
		if opts.linkName != "" {
			symbol = opts.linkName
		}
		cell := lazyfn.New(symbol, policy)

		fieldVal := structVal.Field(i)
		if !opts.strip {
			if fieldVal.Type() != funcPtrType {
				return &TagError{Field: field.Name, Tag: raw, Err: fmt.Errorf("strip=false requires field type *lazyfn.LazyFn, got %s", fieldVal.Type())}
			}
			fieldVal.Set(reflect.ValueOf(cell))
			continue
		}

		if fieldVal.Kind() != reflect.Func {
			return &TagError{Field: field.Name, Tag: raw, Err: fmt.Errorf("strip=true requires a func field, got %s", fieldVal.Type())}
		}
		addr, err := cell.Link()
		if err != nil {
			libName := "vulkan"
			if lib, ok := policy.(*library.Library); ok {
				libName = strings.Join(lib.Names(), "|")
			}
			panic(fmt.Sprintf("gen: link %s (%s) from %s: %v", symbol, field.Name, libName, err))
		}
		purego.RegisterFunc(fieldVal.Addr().Interface(), addr)
	}
	return nil
}

func resolvePolicy(structVal reflect.Value, opts options) (lazyfn.LinkPolicy, error) {
	switch {
	case opts.vulkan:
		return vulkan.Default(), nil

	case opts.libraryField != "":
		sibling := structVal.FieldByName(opts.libraryField)
		if !sibling.IsValid() {
			return nil, fmt.Errorf("library= references unknown field %q", opts.libraryField)
		}
		lib, ok := sibling.Interface().(*library.Library)
		if !ok || lib == nil {
			return nil, fmt.Errorf("library= field %q must hold a non-nil *library.Library", opts.libraryField)
		}
		return lib, nil

	case opts.name != "" || len(opts.any) > 0:
		backend, err := resolveBackend(opts.linker)
		if err != nil {
			return nil, err
		}
		candidates := opts.any
		if opts.name != "" {
			candidates = []string{opts.name}
		}
		return library.New(backend, nil, candidates...), nil

	default:
		return nil, fmt.Errorf("no link policy specified")
	}
}

func resolveBackend(linker string) (loader.Loader, error) {
	if linker == "" {
		return loader.NewSystem(), nil
	}
	backend, ok := lookupLoader(linker)
	if !ok {
		return nil, fmt.Errorf("linker= names unregistered loader %q", linker)
	}
	return backend, nil
}
