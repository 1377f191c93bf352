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

package cluster

import (
	"testing"

	"github.com/hashicorp/serf/serf"
	"github.com/stretchr/testify/require"
)

func member(segment string) serf.Member {
	return serf.Member{Tags: map[string]string{"segment": segment}}
}

func TestNewRegistryStartsAllSegmentsLive(t *testing.T) {
	require := require.New(t)

	r := NewRegistry(3, nil)
	require.ElementsMatch([]int{0, 1, 2}, r.LiveSegments())
	require.True(r.IsLive(0))
}

func TestWatchMarksFailedSegmentDead(t *testing.T) {
	require := require.New(t)

	r := NewRegistry(2, nil)
	events := make(chan serf.Event, 2)
	events <- serf.MemberEvent{Type: serf.EventMemberFailed, Members: []serf.Member{member("1")}}
	close(events)

	r.Watch(events)

	require.True(r.IsLive(0))
	require.False(r.IsLive(1))
}

func TestWatchRevivesSegmentOnRejoin(t *testing.T) {
	require := require.New(t)

	r := NewRegistry(1, nil)
	events := make(chan serf.Event, 2)
	events <- serf.MemberEvent{Type: serf.EventMemberFailed, Members: []serf.Member{member("0")}}
	events <- serf.MemberEvent{Type: serf.EventMemberJoin, Members: []serf.Member{member("0")}}
	close(events)

	r.Watch(events)

	require.True(r.IsLive(0))
}

func TestSegmentIDOfIgnoresUntaggedMembers(t *testing.T) {
	require := require.New(t)

	_, err := segmentIDOf(serf.Member{Tags: map[string]string{}})
	require.ErrorIs(err, errNoSegmentTag)
}
