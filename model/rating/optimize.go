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
	"github.com/gorse-io/heather/common/floats"
)

// Optimizer applies a gradient to a parameter slice in place. Models compute
// gradients analytically, the optimizer owns the update rule.
type Optimizer interface {
	Update(param, grad []float32)
}

// SGD is plain stochastic gradient descent: param <- param - lr * grad.
type SGD struct {
	lr float32
}

func NewSGD(lr float32) *SGD {
	return &SGD{lr: lr}
}

func (sgd *SGD) Update(param, grad []float32) {
	floats.MulConstAdd(grad, -sgd.lr, param)
}
