// Package params implements the parameter bag: the key/value configuration a
// build reads from the command line, a parameter file and the environment.
//
// Keys are case-insensitive and treat '-' and '_' alike, so `-p Nuget-Api-Key=x`,
// `nuget_api_key: x` in a YAML file and BUILDGRID_NUGET_API_KEY all address the
// same parameter. Precedence, highest first: command line, parameter file,
// environment, declared default.
package params
