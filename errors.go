package apiscan

import "fmt"

// SpecNotFoundError reports a documentation file that exists but holds no
// declaration of the OpenAPI constant assigned to an object literal.
type SpecNotFoundError struct {
	File        string
	Declaration string
}

func (e *SpecNotFoundError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("apiscan: no %s object literal declared", e.Declaration)
	}
	return fmt.Sprintf("apiscan: no %s object literal declared in %s", e.Declaration, e.File)
}

// SpecEvaluationError reports a declared OpenAPI literal that could not be
// decoded, or whose decoded value lacks the expected path map.
type SpecEvaluationError struct {
	File        string
	Declaration string
	// Line is the 1-based line of the declaration in File.
	Line int
	Err  error
}

func (e *SpecEvaluationError) Error() string {
	where := fmt.Sprintf("line %d", e.Line)
	if e.File != "" {
		where = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	return fmt.Sprintf("apiscan: evaluate %s (%s): %v", e.Declaration, where, e.Err)
}

func (e *SpecEvaluationError) Unwrap() error {
	return e.Err
}
