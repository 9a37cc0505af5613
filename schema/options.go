package schema

import "github.com/lestrrat-go/option"

type Option = option.Interface

type identFailFast struct{}

type ValidateOption interface {
	Option
	validateOption()
}

type validateOption struct{ Option }

func (*validateOption) validateOption() {}

// WithFailFast makes validation stop at the first violation instead of
// accumulating everything.
func WithFailFast(v bool) ValidateOption {
	return &validateOption{option.New(identFailFast{}, v)}
}
