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
	"github.com/juju/errors"

	"github.com/gorse-io/heather/base"
)

// MSE returns the mean squared error between observed ratings and
// predictions.
func MSE(observed, predicted []float32) (float32, error) {
	if len(observed) != len(predicted) {
		return 0, errors.Annotatef(base.ErrDimensionMismatch,
			"observed %d, predicted %d", len(observed), len(predicted))
	}
	if len(observed) == 0 {
		return 0, errors.Annotate(base.ErrInvalidArgument, "empty vectors")
	}
	sum := float32(0)
	for i := range observed {
		e := predicted[i] - observed[i]
		sum += e * e
	}
	return sum / float32(len(observed)), nil
}
