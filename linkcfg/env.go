package linkcfg

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/teranos/mithras-link/errors"
)

// LookupFunc resolves an environment variable. It has the shape of os.LookupEnv.
type LookupFunc func(name string) (string, bool)

// OSLookup reads the process environment
func OSLookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// MapLookup serves variables from a fixed map, mostly for tests and dotenv files
func MapLookup(vars map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// ChainLookup tries each lookup in order and returns the first non-empty value
func ChainLookup(lookups ...LookupFunc) LookupFunc {
	return func(name string) (string, bool) {
		for _, lookup := range lookups {
			if lookup == nil {
				continue
			}
			if v, ok := lookup(name); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
}

// DotenvLookup loads a dotenv file without touching the process environment
func DotenvLookup(path string) (LookupFunc, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read env file %s", path)
	}
	return MapLookup(vars), nil
}

// ConfigureFromEnv reads the build root from the variable name (RootEnvVar
// when empty) via lookup and runs Configure. A missing or empty variable is a
// configuration error.
func ConfigureFromEnv(lookup LookupFunc, name string, opts Options) (*Plan, error) {
	if name == "" {
		name = RootEnvVar
	}
	if lookup == nil {
		lookup = OSLookup
	}

	root, ok := lookup(name)
	if !ok || root == "" {
		return nil, missingRootError(name)
	}
	return Configure(root, opts)
}
