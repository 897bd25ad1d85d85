/*
Package builder turns the format-agnostic configuration model into target
definitions and registers them in a registry.

It is the bridge between the static build file (the 'config' package) and the
execution engine (the 'executor' package). Every declared target becomes one
*target.Definition:

 1. Static attributes (dependencies, ordering, triggers, artifacts, failure
    policy) are copied over, and `when_skipped` is parsed.

 2. `requires` and `only_when` expressions become conditions. They are
    evaluated lazily against an evaluation context holding `param`,
    `invoked` and the helper functions, so a condition sees the parameter
    values of the current run.

 3. The partition block becomes an items function that evaluates `items` and
    expands `items_glob`.

 4. Action blocks are bound to their handlers up front, so an unknown action
    type fails the build instead of the run. The resulting body evaluates
    each action's arguments against the invocation (`target`, `partition`,
    `items`, `run_id`) and runs the actions in declaration order.
*/
package builder
