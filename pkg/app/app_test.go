package app

import (
	"errors"
	"testing"

	cliflag "k8s.io/component-base/cli/flag"
)

type testOptions struct {
	Name     string `mapstructure:"name"`
	complete bool
	fail     bool
}

func (o *testOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fss.FlagSet("test").StringVar(&o.Name, "name", "default", "a name")
	return fss
}

func (o *testOptions) Complete() error {
	o.complete = true
	return nil
}

func (o *testOptions) Validate() error {
	if o.fail {
		return errors.New("invalid")
	}
	return nil
}

func TestAppRun(t *testing.T) {
	opts := &testOptions{}
	var ran bool
	a := NewApp("carbridge-test", "test app",
		WithOptions(opts),
		WithNoConfig(),
		WithDefaultValidArgs(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)

	a.Command().SetArgs([]string{"--name=dolphin"})
	if err := a.Command().Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !ran || !opts.complete {
		t.Errorf("ran = %v, complete = %v", ran, opts.complete)
	}
	if opts.Name != "dolphin" {
		t.Errorf("Name = %q, want dolphin", opts.Name)
	}
}

func TestAppRejectsArgs(t *testing.T) {
	a := NewApp("carbridge-test", "test app",
		WithOptions(&testOptions{}),
		WithNoConfig(),
		WithDefaultValidArgs(),
		WithRunFunc(func() error { return nil }),
	)
	a.Command().SetArgs([]string{"unexpected"})
	if err := a.Command().Execute(); err == nil {
		t.Error("Execute() succeeded with a positional argument")
	}
}

func TestAppValidationError(t *testing.T) {
	a := NewApp("carbridge-test", "test app",
		WithOptions(&testOptions{fail: true}),
		WithNoConfig(),
		WithRunFunc(func() error {
			t.Error("run called despite validation error")
			return nil
		}),
	)
	a.Command().SetArgs([]string{})
	if err := a.Command().Execute(); err == nil {
		t.Error("Execute() succeeded with invalid options")
	}
}

func TestEnvPrefixFor(t *testing.T) {
	if got := envPrefixFor("car-bridge"); got != "CAR_BRIDGE" {
		t.Errorf("envPrefixFor() = %q", got)
	}
}
