// Package hookbus is an in-process, pattern-addressed hook dispatcher for
// modular and plugin architectures.
//
// Components register callbacks against dotted patterns of the form
// namespace.part1...partN.action and trigger them with Fire. Every matching
// hook runs, one at a time, in the phase order of its namespace; the last
// value a hook produced becomes the result, and any hook may stop the fire
// early.
//
// # Quick Start
//
//	d, err := hookbus.New(hookbus.WithLogger(slog.Default()))
//	if err != nil {
//	    return err
//	}
//	_ = d.CreateNamespace("sys", []string{"pre", "main*", "post"}, nil)
//
//	_, _ = d.AddHook("sys.login.call", func(ec *hookbus.ExecContext, args ...any) (any, error) {
//	    return args[0] == "admin", nil
//	})
//
//	res, err := d.Fire(ctx, "sys.login.call", "admin", "1234")
//	// res.Value == true
//
// # Patterns
//
// The first segment names the namespace and the last is the action; the
// segments between are name parts. A registered hook may use "*" for any name
// part to match exactly one segment in that position:
//
//	"nodes.*.status.set" matches "nodes.node1.status.set"
//	"nodes.*.status.set" does not match "nodes.node1.sub.status.set"
//
// # Phases
//
// Each namespace declares an ordered phase list with one default, marked by a
// trailing "*". Hooks run in ascending phase order and, within a phase, in
// registration order. Hooks registered under a phase the namespace does not
// declare run before every declared phase.
//
// # Execution context
//
// Every fire builds a fresh ExecContext holding the arguments, the return
// slot, and the stop flag, plus a copy of the namespace's shared context. The
// live shared context is reachable through ExecContext.Shared and is visible to
// every fire on the namespace.
//
// # Asynchronous hooks
//
// A hook may return an Awaitable, such as the *Future built by Go. The
// dispatcher waits for it before running the next hook, so synchronous and
// asynchronous hooks sequence identically.
package hookbus
