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

package query

import (
	"fmt"

	"github.com/4store/qcore/rid"
)

// xsdInteger is COUNT's synthesised datatype URI (spec §6: "collapse to a
// single xsd:integer count row").
const xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"

func fmtInt(n int64) string { return fmt.Sprintf("%d", n) }

// bnodeLex synthesises a stable textual label for a bNode RID, mirroring
// the placeholder package memory.Store.Resolve uses for the same purpose.
func bnodeLex(r rid.RID) string { return fmt.Sprintf("_:b%x", uint64(r)) }
