package features

import "fmt"

// InvalidInputError reports a submitted value that is missing, not a
// number, or outside its declared range.
type InvalidInputError struct {
	Field   Field
	Value   float64
	Raw     string
	Min     float64
	Max     float64
	Missing bool
	Err     error
}

func (e *InvalidInputError) Error() string {
	label := e.Field.Spec().Label
	switch {
	case e.Missing:
		return fmt.Sprintf("%s is required", label)
	case e.Err != nil:
		return fmt.Sprintf("%s: %q is not a number", label, e.Raw)
	default:
		return fmt.Sprintf("%s must be between %g and %g, got %g", label, e.Min, e.Max, e.Value)
	}
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// DimensionError reports a vector of the wrong length.
type DimensionError struct {
	Want, Got int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("expected %d features, got %d", e.Want, e.Got)
}
