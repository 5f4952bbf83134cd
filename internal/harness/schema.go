package harness

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// suiteSchema is the authoritative shape of a suite file. Keeping it in CUE
// lets external tooling validate suites without importing this package.
const suiteSchema = `
#Suite: {
	name:         string & !=""
	description?: string
	section?:     string
	scale?:       int & >0
	checks: [...#Check] & [_, ...]
}

#Check: {
	label?:   string
	angle:    number & >=0 & <=90
	energy:   number & >0
	expected: int & >=0
}
`

// validateSuiteSchema unifies the YAML document with the suite schema and
// reports the first constraint violation with its position.
func validateSuiteSchema(filename string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(suiteSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling suite schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Suite"))
	if !def.Exists() {
		return fmt.Errorf("suite schema has no #Suite definition")
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("decoding YAML: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("building YAML document: %w", err)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return fmt.Errorf("schema violation: %w", err)
	}
	return nil
}
