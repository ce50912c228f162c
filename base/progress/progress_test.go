// Copyright 2023 gorse Project Authors
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

package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracer(t *testing.T) {
	tracer := NewTracer("test")
	ctx, root := tracer.Start(context.Background(), "root", 10)
	root.Add(3)
	assert.Equal(t, 3, root.Count())

	_, child := Start(ctx, "child", 5)
	child.Add(5)
	child.End()
	assert.Equal(t, 5, child.Count())

	root.End()
	list := tracer.List()
	assert.Len(t, list, 1)
	assert.Equal(t, "root", list[0].Name)
	assert.Equal(t, StatusComplete, list[0].Status)
	assert.Equal(t, 10, list[0].Count)
}

func TestDetachedSpan(t *testing.T) {
	ctx, span := Start(context.Background(), "detached", 2)
	assert.Nil(t, ctx)
	span.Add(1)
	assert.Equal(t, 1, span.Count())
	span.End()
}
