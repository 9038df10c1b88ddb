package hookbus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
)

// Static error variables for BDD tests
var (
	errDispatcherNotCreated = errors.New("dispatcher was not created in background")
	errUnexpectedValue      = errors.New("unexpected fire value")
	errUnexpectedOrder      = errors.New("hooks ran in unexpected order")
	errExpectedFireError    = errors.New("expected fire to fail")
	errExpectedNoValue      = errors.New("expected fire to have no value")
	errExpectedStopped      = errors.New("expected fire to be stopped")
	errUnexpectedMatch      = errors.New("expected no matching hooks")
	errBDDHookFailed        = errors.New("hook failed on purpose")
)

// DispatcherBDDContext holds the state of one scenario.
type DispatcherBDDContext struct {
	dispatcher *Dispatcher
	order      *callOrder
	result     Result
	fireErr    error
}

func (c *DispatcherBDDContext) resetContext() {
	c.dispatcher = nil
	c.order = &callOrder{}
	c.result = Result{}
	c.fireErr = nil
}

func (c *DispatcherBDDContext) iHaveANewDispatcher() error {
	d, err := New()
	if err != nil {
		return err
	}
	c.dispatcher = d
	return nil
}

func (c *DispatcherBDDContext) iCreateNamespaceWithPhases(id, phases string) error {
	if c.dispatcher == nil {
		return errDispatcherNotCreated
	}
	return c.dispatcher.CreateNamespace(id, strings.Split(phases, ","), nil)
}

func (c *DispatcherBDDContext) aLoginHook(pattern, user, password string) error {
	_, err := c.dispatcher.AddHook(pattern, func(ec *ExecContext, args ...any) (any, error) {
		return ec.Arg(0) == user && ec.Arg(1) == password, nil
	})
	return err
}

func (c *DispatcherBDDContext) aLabelledHook(label, pattern, phase string) error {
	_, err := c.dispatcher.AddHook(pattern, c.order.hook(label), WithPhase(phase))
	return err
}

func (c *DispatcherBDDContext) aStoppingHook(pattern, phase string) error {
	_, err := c.dispatcher.AddHook(pattern, func(ec *ExecContext, args ...any) (any, error) {
		ec.Stop()
		return nil, nil
	}, WithPhase(phase))
	return err
}

func (c *DispatcherBDDContext) aReturningHook(pattern, phase, value string) error {
	_, err := c.dispatcher.AddHook(pattern, returning(value), WithPhase(phase))
	return err
}

func (c *DispatcherBDDContext) aFailingHook(pattern, phase string) error {
	_, err := c.dispatcher.AddHook(pattern, func(ec *ExecContext, args ...any) (any, error) {
		return nil, errBDDHookFailed
	}, WithPhase(phase))
	return err
}

func (c *DispatcherBDDContext) aStatusProperty(pattern string) error {
	status := NewSharedContext(nil)
	_, err := c.dispatcher.RegisterProperty(pattern,
		func(ec *ExecContext, args ...any) (any, error) {
			v, _ := status.Get(ec.Pattern().Parts[0])
			return v, nil
		},
		func(ec *ExecContext, args ...any) (any, error) {
			status.Set(ec.Pattern().Parts[0], ec.Arg(0))
			return nil, nil
		})
	return err
}

func (c *DispatcherBDDContext) iFire(pattern string) error {
	c.result, c.fireErr = c.dispatcher.Fire(context.Background(), pattern)
	return nil
}

func (c *DispatcherBDDContext) iFireWithTwoArgs(pattern, a, b string) error {
	c.result, c.fireErr = c.dispatcher.Fire(context.Background(), pattern, a, b)
	return nil
}

func (c *DispatcherBDDContext) iSetProperty(name, namespace, value string) error {
	return c.dispatcher.Namespace(namespace).Set(context.Background(), name, value)
}

func (c *DispatcherBDDContext) gettingPropertyShouldReturn(name, namespace, want string) error {
	v, err := c.dispatcher.Namespace(namespace).Get(context.Background(), name)
	if err != nil {
		return err
	}
	if v != want {
		return fmt.Errorf("%w: got %v, want %q", errUnexpectedValue, v, want)
	}
	return nil
}

func (c *DispatcherBDDContext) theFireShouldReturnBool(want string) error {
	if c.fireErr != nil {
		return c.fireErr
	}
	if fmt.Sprint(c.result.Value) != want {
		return fmt.Errorf("%w: got %v, want %s", errUnexpectedValue, c.result.Value, want)
	}
	return nil
}

func (c *DispatcherBDDContext) theFireShouldReturnString(want string) error {
	if c.fireErr != nil {
		return c.fireErr
	}
	if c.result.Value != want {
		return fmt.Errorf("%w: got %v, want %q", errUnexpectedValue, c.result.Value, want)
	}
	return nil
}

func (c *DispatcherBDDContext) theFireShouldHaveNoValue() error {
	if c.fireErr != nil {
		return c.fireErr
	}
	if c.result.HasValue {
		return fmt.Errorf("%w: got %v", errExpectedNoValue, c.result.Value)
	}
	return nil
}

func (c *DispatcherBDDContext) theFireShouldBeStopped() error {
	if !c.result.Stopped {
		return errExpectedStopped
	}
	return nil
}

func (c *DispatcherBDDContext) theHooksShouldHaveRunInOrder(order string) error {
	got := strings.Join(c.order.list(), ",")
	if got != order {
		return fmt.Errorf("%w: got %s, want %s", errUnexpectedOrder, got, order)
	}
	return nil
}

func (c *DispatcherBDDContext) theFireShouldFailWithNamespaceNotFound() error {
	if !errors.Is(c.fireErr, ErrNamespaceNotFound) {
		return fmt.Errorf("%w: got %v", errExpectedFireError, c.fireErr)
	}
	return nil
}

func (c *DispatcherBDDContext) theFireShouldFailWithHookInvocationError() error {
	if !errors.Is(c.fireErr, ErrHookInvocation) || !errors.Is(c.fireErr, errBDDHookFailed) {
		return fmt.Errorf("%w: got %v", errExpectedFireError, c.fireErr)
	}
	if c.result.HasValue {
		return fmt.Errorf("%w: got %v", errExpectedNoValue, c.result.Value)
	}
	return nil
}

func (c *DispatcherBDDContext) patternShouldHaveNoMatchingHooks(pattern string) error {
	ok, err := c.dispatcher.HasMatch(pattern)
	if err != nil {
		return err
	}
	if ok {
		return errUnexpectedMatch
	}
	return nil
}

// InitializeDispatcherScenario registers the dispatcher step definitions.
func InitializeDispatcherScenario(ctx *godog.ScenarioContext) {
	testCtx := &DispatcherBDDContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		testCtx.resetContext()
		return ctx, nil
	})

	// Setup steps
	ctx.Step(`^I have a new dispatcher$`, testCtx.iHaveANewDispatcher)
	ctx.Step(`^I create namespace "([^"]*)" with phases "([^"]*)"$`, testCtx.iCreateNamespaceWithPhases)

	// Hook registration steps
	ctx.Step(`^a hook on "([^"]*)" that accepts user "([^"]*)" with password "([^"]*)"$`, testCtx.aLoginHook)
	ctx.Step(`^a hook labelled "([^"]*)" on "([^"]*)" in phase "([^"]*)"$`, testCtx.aLabelledHook)
	ctx.Step(`^a hook on "([^"]*)" in phase "([^"]*)" that stops the fire$`, testCtx.aStoppingHook)
	ctx.Step(`^a hook on "([^"]*)" in phase "([^"]*)" that returns "([^"]*)"$`, testCtx.aReturningHook)
	ctx.Step(`^a hook on "([^"]*)" in phase "([^"]*)" that fails$`, testCtx.aFailingHook)
	ctx.Step(`^a status property on "([^"]*)" backed by a map$`, testCtx.aStatusProperty)

	// Fire steps
	ctx.Step(`^I fire "([^"]*)"$`, testCtx.iFire)
	ctx.Step(`^I fire "([^"]*)" with "([^"]*)" and "([^"]*)"$`, testCtx.iFireWithTwoArgs)
	ctx.Step(`^I set "([^"]*)" on namespace "([^"]*)" to "([^"]*)"$`, testCtx.iSetProperty)

	// Assertion steps
	ctx.Step(`^the fire should return (true|false)$`, testCtx.theFireShouldReturnBool)
	ctx.Step(`^the fire should return "([^"]*)"$`, testCtx.theFireShouldReturnString)
	ctx.Step(`^the fire should have no value$`, testCtx.theFireShouldHaveNoValue)
	ctx.Step(`^the fire should be stopped$`, testCtx.theFireShouldBeStopped)
	ctx.Step(`^the hooks should have run in order "([^"]*)"$`, testCtx.theHooksShouldHaveRunInOrder)
	ctx.Step(`^the fire should fail with namespace not found$`, testCtx.theFireShouldFailWithNamespaceNotFound)
	ctx.Step(`^the fire should fail with a hook invocation error$`, testCtx.theFireShouldFailWithHookInvocationError)
	ctx.Step(`^getting "([^"]*)" on namespace "([^"]*)" should return "([^"]*)"$`, testCtx.gettingPropertyShouldReturn)
	ctx.Step(`^"([^"]*)" should have no matching hooks$`, testCtx.patternShouldHaveNoMatchingHooks)
}

// TestDispatcherFeatures runs the BDD tests for hook dispatch
func TestDispatcherFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeDispatcherScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/dispatcher.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
