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
	"context"

	"github.com/juju/errors"
	"github.com/samber/lo"

	"github.com/gorse-io/heather/base/progress"
	"github.com/gorse-io/heather/dataset"
)

// CrossValidate evaluates a model by k-fold cross-validation. The model is
// cleared and refitted for each fold. Folds advance the span carried by ctx.
func CrossValidate(ctx context.Context, m MatrixFactorization, data *dataset.Dataset, k int, seed int64, config *FitConfig) ([]Score, error) {
	trains, tests, err := dataset.KFoldSplit(data, k, seed)
	if err != nil {
		return nil, errors.Trace(err)
	}
	ctx, span := progress.Start(ctx, "CrossValidate", k)
	scores := make([]Score, k)
	for i := range trains {
		m.Clear()
		scores[i], err = m.Fit(ctx, trains[i], tests[i], config)
		if err != nil {
			span.Fail(err)
			return nil, errors.Trace(err)
		}
		span.Add(1)
	}
	span.End()
	return scores, nil
}

// MeanScore averages fold scores.
func MeanScore(scores []Score) Score {
	return Score{
		RMSE: lo.SumBy(scores, func(s Score) float32 { return s.RMSE }) / float32(len(scores)),
		MAE:  lo.SumBy(scores, func(s Score) float32 { return s.MAE }) / float32(len(scores)),
	}
}
