// Copyright 2021 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSGD_Update(t *testing.T) {
	sgd := NewSGD(0.1)
	param := []float32{1, 2}
	sgd.Update(param, []float32{0.5, -0.5})
	assert.InDeltaSlice(t, []float32{0.95, 2.05}, param, 1e-6)
	// zero gradient is a no-op
	sgd.Update(param, []float32{0, 0})
	assert.InDeltaSlice(t, []float32{0.95, 2.05}, param, 1e-6)
}
