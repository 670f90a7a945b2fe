// Package jsonschema validates JSON documents against JSON Schema drafts 7
// and 2019-09.
//
// Schemas go through three stages. The loader parses a schema document into
// a declarative tree and records every addressable location in a registry.
// The compiler turns that tree into a tree of validators, resolving "$ref",
// "$recursiveRef" and cyclic references once. The validators then walk
// instances, reporting one output per failed keyword and, optionally, a
// JSON Patch adding the defaults of missing properties.
//
// Most callers only need pkg/validator:
//
//	v, err := validator.New(schemaJSON, validator.WithDraft(loader.Draft201909))
//	if err != nil {
//	    return err
//	}
//	result, err := v.Validate(ctx, instanceJSON)
//	if err != nil {
//	    return err
//	}
//	for _, o := range result.Outputs {
//	    fmt.Println(o) // "/age: -1 is below minimum of 0"
//	}
//
// Package layout:
//
//   - pkg/value, pkg/uri, pkg/pointer: instance values, URIs and JSON Pointers
//   - pkg/schema, pkg/registry, pkg/loader: the declarative schema tree
//   - pkg/compiler, pkg/validation: the validator tree and its evaluation
//   - pkg/output, pkg/patch: error outputs and default patches
//   - pkg/regex, pkg/format, pkg/content: keyword helpers
//   - pkg/validator: the facade with caching, metrics and logging
//   - worker: parallel validation of many instances
//   - cache, pool: shared LRU cache and slice pooling
package jsonschema
