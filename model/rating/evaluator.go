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
	"github.com/chewxy/math32"
	"github.com/juju/errors"

	"github.com/gorse-io/heather/base"
	"github.com/gorse-io/heather/dataset"
)

// Scorer is the interface of metrics over observed ratings and predictions.
// Both vectors are guaranteed to have equal non-zero length.
type Scorer func(observed, predictions []float32) float32

// RMSE is the root of the mean squared error.
func RMSE(observed, predictions []float32) float32 {
	sum := float32(0)
	for i := range observed {
		e := predictions[i] - observed[i]
		sum += e * e
	}
	return math32.Sqrt(sum / float32(len(observed)))
}

// MAE is the mean absolute error.
func MAE(observed, predictions []float32) float32 {
	sum := float32(0)
	for i := range observed {
		sum += math32.Abs(predictions[i] - observed[i])
	}
	return sum / float32(len(observed))
}

// Evaluate scores a model on a dataset with the given metrics. Interactions
// referencing users or items outside the model's embedding tables fail with
// ErrIndexOutOfRange.
func Evaluate(m MatrixFactorization, set *dataset.Dataset, scorers ...Scorer) ([]float32, error) {
	if set == nil || set.Count() == 0 {
		return nil, errors.Annotate(base.ErrInvalidArgument, "dataset is empty")
	}
	observed := make([]float32, set.Count())
	userIndices := make([]int32, set.Count())
	itemIndices := make([]int32, set.Count())
	for i := 0; i < set.Count(); i++ {
		userIndices[i], itemIndices[i], observed[i] = set.Get(i)
	}
	predictions, err := m.Score(userIndices, itemIndices)
	if err != nil {
		return nil, errors.Trace(err)
	}
	results := make([]float32, len(scorers))
	for i, scorer := range scorers {
		results[i] = scorer(observed, predictions)
	}
	return results, nil
}
