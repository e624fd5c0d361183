package model

import "fmt"

// SchemaError reports a required field missing from an input layer. It is
// fatal and raised before any phase runs.
type SchemaError struct {
	Layer string
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("layer %q is missing required field %q", e.Layer, e.Field)
}

// GeometryError reports a geometry-engine failure on a single feature. The
// phase skips the feature and continues.
type GeometryError struct {
	Op        string
	FeatureID int64
	Err       error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry op %s failed on feature %d: %v", e.Op, e.FeatureID, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// ResourceError reports an unusable output path or storage failure. It is
// fatal and aborts the run.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %s unavailable: %v", e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }
