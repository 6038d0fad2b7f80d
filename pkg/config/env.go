// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var (
	bracedVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	simpleVarRe = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars resolves $VAR and ${VAR} references against the
// ambient process environment. Unset variables expand to "".
func expandEnvVars(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	s = bracedVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := bracedVarRe.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
	s = simpleVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := simpleVarRe.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
	return s
}

// ExpandServerEnv expands $VAR/${VAR} references in a capability
// server's env map. Values stay strings: they feed exec.Cmd.Env, which
// has no notion of typed values.
func ExpandServerEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = expandEnvVars(v)
	}
	return out
}

// coerceScalar converts an expanded string to bool/int/float64 when it
// looks like one, matching the loose typing YAML itself would have
// produced had the value not originally been a $VAR reference.
func coerceScalar(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// ExpandEnvVarsInData walks an arbitrary decoded YAML/JSON value
// (map[string]any / []any / scalars) and expands $VAR/${VAR} in every
// string, coercing the result back to a typed scalar when the expanded
// text looks like one. Used for general agent-config values; manifest
// server env maps use ExpandServerEnv instead, which never coerces.
func ExpandEnvVarsInData(data any) any {
	switch v := data.(type) {
	case string:
		expanded := expandEnvVars(v)
		if expanded != v {
			return coerceScalar(expanded)
		}
		return expanded
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = ExpandEnvVarsInData(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = ExpandEnvVarsInData(val)
		}
		return out
	default:
		return v
	}
}

// LoadEnvFiles loads .env.local then .env from the current directory
// into the process environment before config resolution, grounded on
// the teacher's config.LoadEnvFiles. A missing file is not an error; a
// malformed one is. godotenv never overrides a variable already set in
// the environment.
func LoadEnvFiles() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading %s: %w", file, err)
		}
	}
	return nil
}
