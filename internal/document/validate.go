package document

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/*.schema.json
var schemaFS embed.FS

var (
	schemaOnce sync.Once
	schemas    map[Kind]*gojsonschema.Schema
	schemaErr  error
)

// Payload 是创建/更新接口的请求体。Layout 字段平铺在顶层。
type Payload struct {
	Title string `json:"title"`
	Layout
	Data *Data `json:"data"`
}

// ValidationError 汇总 JSON Schema 的字段错误。
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "schema validation failed: " + strings.Join(e.Fields, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func loadSchemas() (map[Kind]*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemas = make(map[Kind]*gojsonschema.Schema, 2)
		for _, kind := range []Kind{KindCV, KindCoverLetter} {
			raw, err := schemaFS.ReadFile("schema/" + string(kind) + ".schema.json")
			if err != nil {
				schemaErr = fmt.Errorf("read %s schema: %w", kind, err)
				return
			}
			compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				schemaErr = fmt.Errorf("compile %s schema: %w", kind, err)
				return
			}
			schemas[kind] = compiled
		}
	})
	return schemas, schemaErr
}

// Validate 使用内嵌的 JSON Schema 校验原始请求体。
// 校验失败时返回 *ValidationError（errors.Is(err, ErrValidation) 为 true）。
func Validate(kind Kind, raw []byte) error {
	all, err := loadSchemas()
	if err != nil {
		return err
	}
	schema, ok := all[kind]
	if !ok {
		return ErrUnknownKind
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		// 非法 JSON 也按校验错误处理
		return &ValidationError{Fields: []string{err.Error()}}
	}
	if res.Valid() {
		return nil
	}

	fields := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		fields = append(fields, e.String())
	}
	return &ValidationError{Fields: fields}
}
