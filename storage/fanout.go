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

package storage

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/4store/qcore/rid"
)

// SegmentStore is a per-segment slice of Store, addressed by segment id —
// the shape a real cluster client exposes: one RPC stub per live segment
// (spec SPEC_FULL §B, grounded on `4s-bind.c`'s per-segment fan-out, §C.2).
type SegmentStore interface {
	Segments() []int
	Bind(ctx context.Context, segment int, req BindRequest) (BindResult, error)
	Resolve(ctx context.Context, segment int, rids []rid.RID) ([]rid.Resource, error)
}

// FanOut issues req to every segment in parallel and merges the per-segment
// BindResults into one, matching spec §5's "that task may fan out bind
// calls to storage segments in parallel". A failure on any single segment
// aborts the whole fan-out, since a partial segment result would silently
// under-report matches for the default graph.
func FanOut(ctx context.Context, ss SegmentStore, req BindRequest) (BindResult, error) {
	segments := ss.Segments()
	results := make([]BindResult, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	for i, seg := range segments {
		i, seg := i, seg
		g.Go(func() error {
			r, err := ss.Bind(gctx, seg, req)
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return BindResult{}, err
	}

	merged := BindResult{Slots: req.RequestSlots}
	merged.Columns = make([][]rid.RID, len(req.RequestSlots))
	for _, res := range results {
		for ci := range merged.Columns {
			if ci < len(res.Columns) {
				merged.Columns[ci] = append(merged.Columns[ci], res.Columns[ci]...)
			}
		}
		merged.Truncated = merged.Truncated || res.Truncated
	}
	if req.Limit > 0 && len(merged.Columns) > 0 && len(merged.Columns[0]) > req.Limit {
		for ci := range merged.Columns {
			merged.Columns[ci] = merged.Columns[ci][:req.Limit]
		}
		merged.Truncated = true
	}
	return merged, nil
}
