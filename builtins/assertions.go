package builtins

import (
	"fmt"

	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/types"
)

// RegisterAssertions adds the comparison assertions of spec.md 4.2 and
// their negations.
func RegisterAssertions(reg *registry.Registry) {
	reg.RegisterAssertion("be exactly {expected}", assertExactly)
	reg.RegisterAssertion("not be exactly {expected}", negate(assertExactly))

	reg.RegisterAssertion("contain {expected}", assertContain)
	reg.RegisterAssertion("not contain {expected}", negate(assertContain))

	reg.RegisterAssertion("be empty", assertEmpty)
	reg.RegisterAssertion("not be empty", negate(assertEmpty))
}

func assertExactly(actual types.Value, expected *types.Value) error {
	if expected == nil || !actual.Equal(*expected) {
		return types.NewStepError(types.ErrAssertionFailed, "",
			fmt.Errorf("expected %s, got %s", renderForMessage(expected), actual.String()))
	}
	return nil
}

func assertContain(actual types.Value, expected *types.Value) error {
	if expected == nil {
		return types.NewStepError(types.ErrAssertionTypeMismatch, "", fmt.Errorf("contain requires an argument"))
	}
	ok, err := actual.Contains(*expected)
	if err != nil {
		return types.NewStepError(types.ErrAssertionTypeMismatch, "", err)
	}
	if !ok {
		return types.NewStepError(types.ErrAssertionFailed, "",
			fmt.Errorf("%s does not contain %s", actual.String(), expected.String()))
	}
	return nil
}

func assertEmpty(actual types.Value, expected *types.Value) error {
	if !actual.IsEmpty() {
		return types.NewStepError(types.ErrAssertionFailed, "",
			fmt.Errorf("expected empty value, got %s", actual.String()))
	}
	return nil
}

// negate flips a base assertion's pass/fail outcome for its "not ..."
// counterpart, converting a type-mismatch error into a pass-through failure
// rather than treating it as a match.
func negate(base func(types.Value, *types.Value) error) registry.Assertion {
	return func(actual types.Value, expected *types.Value) error {
		err := base(actual, expected)
		if err == nil {
			return types.NewStepError(types.ErrAssertionFailed, "", fmt.Errorf("expected assertion to fail, but it passed"))
		}
		var stepErr *types.StepError
		if se, ok := err.(*types.StepError); ok {
			stepErr = se
		}
		if stepErr != nil && stepErr.Kind == types.ErrAssertionTypeMismatch {
			return err
		}
		return nil
	}
}

func renderForMessage(v *types.Value) string {
	if v == nil {
		return "<none>"
	}
	return v.String()
}
