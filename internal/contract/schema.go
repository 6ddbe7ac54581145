// Package contract — schema.go
//
// Structural schemas for schema-bound endpoints are written in CUE and
// embedded in the binary. Each file under schemas/ describes one response
// shape and exposes a #Response definition; the file name (without
// extension) is the logical name scenarios refer to, e.g. "coupon_list".
// Schemas are compiled once per run and reused by every scenario.
package contract

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

// SchemaRegistry holds the compiled response schemas for a run.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
}

// LoadSchemas compiles every embedded schema document. Compilation failures
// abort the run: a broken schema is a harness defect, not a test outcome.
func LoadSchemas() (*SchemaRegistry, error) {
	ctx := cuecontext.New()
	reg := &SchemaRegistry{ctx: ctx, schemas: make(map[string]cue.Value)}

	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, fmt.Errorf("contract: read schema dir: %w", err)
	}

	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".cue")
		src, err := schemaFS.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("contract: read schema %q: %w", name, err)
		}

		val := ctx.CompileBytes(src, cue.Filename(entry.Name()))
		if val.Err() != nil {
			return nil, fmt.Errorf("contract: compile schema %q: %w", name, val.Err())
		}

		resp := val.LookupPath(cue.ParsePath("#Response"))
		if resp.Err() != nil {
			return nil, fmt.Errorf("contract: schema %q has no #Response: %w", name, resp.Err())
		}

		reg.schemas[name] = resp
	}

	return reg, nil
}

// Names lists the registered logical schema names, sorted.
func (r *SchemaRegistry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks body against the named schema and returns every
// violation, not just the first. An unknown schema name is itself reported
// as a violation so a typo in a scenario never passes silently.
func (r *SchemaRegistry) Validate(name string, body []byte) []string {
	schema, ok := r.schemas[name]
	if !ok {
		return []string{fmt.Sprintf("schema %q is not registered", name)}
	}

	expr, err := cuejson.Extract(name, body)
	if err != nil {
		return []string{fmt.Sprintf("schema %q: body is not valid JSON: %v", name, err)}
	}

	data := r.ctx.BuildExpr(expr)
	if data.Err() != nil {
		return []string{fmt.Sprintf("schema %q: build value: %v", name, data.Err())}
	}

	unified := schema.Unify(data)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		var out []string
		for _, e := range cueerrors.Errors(err) {
			out = append(out, fmt.Sprintf("schema %q: %s", name, e.Error()))
		}
		return out
	}
	return nil
}
