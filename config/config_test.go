// Copyright 2020-2021 Dolthub, Inc.
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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/4store/qcore/config"
)

func TestDefaultEnablesReorderOnly(t *testing.T) {
	require := require.New(t)

	opts := config.Default()
	require.True(opts.UseReorder())
	require.False(opts.UseFreq())
	require.False(opts.UseCache())
}

func TestOptLevelGating(t *testing.T) {
	require := require.New(t)

	require.False(config.Options{OptLevel: config.OptNone}.UseReorder())
	require.True(config.Options{OptLevel: config.OptReorderFreq}.UseFreq())
	require.True(config.Options{OptLevel: config.OptCached}.UseCache())
}

func TestLoadReadsTOMLOverDefault(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "opts.toml")
	require.NoError(os.WriteFile(path, []byte(`
opt_level = 3
soft_limit = 500
restricted = true
`), 0o644))

	opts, err := config.Load(path)
	require.NoError(err)
	require.Equal(config.OptCached, opts.OptLevel)
	require.Equal(500, opts.SoftLimit)
	require.True(opts.Restricted)
	require.Equal(4096, opts.CacheSize) // untouched field keeps Default()'s value
}

func TestFromMapCoercesLooselyTypedValues(t *testing.T) {
	require := require.New(t)

	opts, err := config.FromMap(map[string]interface{}{
		"opt_level":  "2",
		"soft_limit": "1000",
		"distinct":   "true",
	})
	require.NoError(err)
	require.Equal(config.OptReorderFreq, opts.OptLevel)
	require.Equal(1000, opts.SoftLimit)
	require.True(opts.Distinct)
}

func TestFromMapRejectsUncoercibleValue(t *testing.T) {
	require := require.New(t)

	_, err := config.FromMap(map[string]interface{}{"soft_limit": "not-a-number"})
	require.Error(err)
}
