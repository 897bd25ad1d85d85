// Package config defines the format-agnostic model of a build file, along
// with the Loader interface that concrete formats implement.
//
// The `config.Model` is the single source the builder turns into target
// definitions. Expressions stay unevaluated here; they are evaluated later
// against parameters and the invocation at hand. Concrete loaders, such as
// the HCL one, live in separate packages.
package config
