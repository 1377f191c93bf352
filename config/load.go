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

package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/4store/qcore/rid"
)

// Load reads a TOML options file, starting from Default() so any field the
// file omits keeps its conservative baseline.
func Load(path string) (Options, error) {
	opts := Default()
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return Options{}, errors.Wrapf(err, "config: decoding %s", path)
	}
	return opts, nil
}

// FromMap coerces a loosely typed option bag — e.g. query-string flags a
// frontend passed through as strings — into Options via spf13/cast, on top
// of Default(). Unknown keys are ignored; a key present with a value that
// cannot be coerced to its field's type is reported as an error naming the
// key.
func FromMap(m map[string]interface{}) (Options, error) {
	opts := Default()

	if v, ok := m["opt_level"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return Options{}, errors.Wrap(err, "config: opt_level")
		}
		opts.OptLevel = OptLevel(n)
	}
	if v, ok := m["soft_limit"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return Options{}, errors.Wrap(err, "config: soft_limit")
		}
		opts.SoftLimit = n
	}
	if v, ok := m["restricted"]; ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return Options{}, errors.Wrap(err, "config: restricted")
		}
		opts.Restricted = b
	}
	if v, ok := m["default_graph"]; ok {
		n, err := cast.ToUint64E(v)
		if err != nil {
			return Options{}, errors.Wrap(err, "config: default_graph")
		}
		opts.DefaultGraph = rid.RID(n)
	}
	if v, ok := m["explain"]; ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return Options{}, errors.Wrap(err, "config: explain")
		}
		opts.Explain = b
	}
	if v, ok := m["count"]; ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return Options{}, errors.Wrap(err, "config: count")
		}
		opts.Count = b
	}
	if v, ok := m["distinct"]; ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return Options{}, errors.Wrap(err, "config: distinct")
		}
		opts.Distinct = b
	}
	if v, ok := m["cache_size"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return Options{}, errors.Wrap(err, "config: cache_size")
		}
		opts.CacheSize = n
	}
	if v, ok := m["prefetch_window"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return Options{}, errors.Wrap(err, "config: prefetch_window")
		}
		opts.PrefetchWindow = n
	}
	return opts, nil
}
