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
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/gorse-io/heather/base"
	"github.com/gorse-io/heather/base/encoding"
	"github.com/gorse-io/heather/dataset"
	"github.com/gorse-io/heather/model"
)

// newTrainTestSets builds a dataset with an additive structure that a biased
// factorization recovers easily.
func newTrainTestSets(t *testing.T) (*dataset.Dataset, *dataset.Dataset) {
	data := dataset.NewDataset()
	for u := 0; u < 16; u++ {
		for i := 0; i < 16; i++ {
			rating := 1 + float32(u%4) + float32(i%4)
			data.AddRating(fmt.Sprintf("u%d", u), fmt.Sprintf("i%d", i), rating)
		}
	}
	train, test, err := dataset.RatioSplit(data, 0.2, 42)
	assert.NoError(t, err)
	return train, test
}

func newSmallSVD() *SVD {
	// a hand-built model for closed-form checks:
	// prediction = 0 + 0.5 - 0.5 + [1,2]^T [3,4] = 11
	svd := NewSVD(model.Params{model.NFactors: 2})
	svd.UserDict = dataset.NewFreqDict()
	svd.UserDict.Id("alice")
	svd.ItemDict = dataset.NewFreqDict()
	svd.ItemDict.Id("east-of-eden")
	svd.UserFactor = [][]float32{{1, 2}}
	svd.ItemFactor = [][]float32{{3, 4}}
	svd.UserBias = []float32{0.5}
	svd.ItemBias = []float32{-0.5}
	svd.GlobalBias = 0
	return svd
}

func TestBaseMatrixFactorization_Score(t *testing.T) {
	svd := newSmallSVD()
	predictions, err := svd.Score([]int32{0}, []int32{0})
	assert.NoError(t, err)
	assert.Equal(t, []float32{11}, predictions)
}

func TestBaseMatrixFactorization_Score_IndexOutOfRange(t *testing.T) {
	svd := newSmallSVD()
	// the first out-of-range index is the number of users
	_, err := svd.Score([]int32{1}, []int32{0})
	assert.ErrorIs(t, err, base.ErrIndexOutOfRange)
	_, err = svd.Score([]int32{0}, []int32{1})
	assert.ErrorIs(t, err, base.ErrIndexOutOfRange)
	_, err = svd.Score([]int32{-1}, []int32{0})
	assert.ErrorIs(t, err, base.ErrIndexOutOfRange)
}

func TestBaseMatrixFactorization_Score_DimensionMismatch(t *testing.T) {
	svd := newSmallSVD()
	_, err := svd.Score([]int32{0, 0}, []int32{0})
	assert.ErrorIs(t, err, base.ErrDimensionMismatch)
}

func TestBaseMatrixFactorization_Predict(t *testing.T) {
	svd := newSmallSVD()
	assert.Equal(t, float32(11), svd.Predict("alice", "east-of-eden"))
	// unknown identifiers fall back to the remaining terms
	assert.Equal(t, float32(-0.5), svd.Predict("bob", "east-of-eden"))
	assert.Equal(t, float32(0.5), svd.Predict("alice", "the-pearl"))
	assert.Zero(t, svd.Predict("bob", "the-pearl"))
}

func TestSVD_Fit(t *testing.T) {
	trainSet, testSet := newTrainTestSets(t)
	svd := NewSVD(model.Params{
		model.NFactors:    4,
		model.NEpochs:     100,
		model.BatchSize:   32,
		model.Lr:          0.05,
		model.Reg:         0.01,
		model.RandomState: 42,
	})
	fresh := NewSVD(svd.GetParams())
	fresh.Init(trainSet)
	freshScores, err := Evaluate(fresh, testSet, RMSE)
	assert.NoError(t, err)
	score, err := svd.Fit(context.Background(), trainSet, testSet, NewFitConfig().SetVerbose(20))
	assert.NoError(t, err)
	// training must beat the untrained model by a wide margin
	assert.Less(t, score.RMSE, freshScores[0]/2)
	assert.False(t, svd.Invalid())
}

func TestSVD_Fit_Deterministic(t *testing.T) {
	trainSet, testSet := newTrainTestSets(t)
	params := model.Params{
		model.NFactors:    4,
		model.NEpochs:     10,
		model.BatchSize:   32,
		model.RandomState: 42,
	}
	a := NewSVD(params)
	scoreA, err := a.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	assert.NoError(t, err)
	b := NewSVD(params)
	scoreB, err := b.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	assert.NoError(t, err)
	assert.Equal(t, scoreA, scoreB)
	assert.Equal(t, a.UserFactor, b.UserFactor)
	assert.Equal(t, a.ItemFactor, b.ItemFactor)
	assert.Equal(t, a.UserBias, b.UserBias)
	assert.Equal(t, a.GlobalBias, b.GlobalBias)
}

func TestSVD_Fit_InvalidArgument(t *testing.T) {
	trainSet, testSet := newTrainTestSets(t)
	svd := NewSVD(model.Params{model.NEpochs: 0})
	_, err := svd.Fit(context.Background(), trainSet, testSet, nil)
	assert.ErrorIs(t, err, base.ErrInvalidArgument)
	svd = NewSVD(model.Params{model.BatchSize: -1})
	_, err = svd.Fit(context.Background(), trainSet, testSet, nil)
	assert.ErrorIs(t, err, base.ErrInvalidArgument)
	svd = NewSVD(nil)
	_, err = svd.Fit(context.Background(), dataset.NewDataset(), testSet, nil)
	assert.ErrorIs(t, err, base.ErrInvalidArgument)
}

func TestSVD_Fit_Divergence(t *testing.T) {
	trainSet, testSet := newTrainTestSets(t)
	svd := NewSVD(model.Params{
		model.NEpochs:   20,
		model.BatchSize: 32,
		model.Lr:        1e10,
	})
	score, err := svd.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	assert.NoError(t, err)
	assert.True(t, math32.IsNaN(score.RMSE) || math32.IsInf(score.RMSE, 0))
}

type mockTracker struct {
	total    int
	updates  int
	finished bool
}

func (t *mockTracker) Start(total int)     { t.total = total }
func (t *mockTracker) Update(int, float32) { t.updates++ }
func (t *mockTracker) Finish()             { t.finished = true }

func TestSVD_Fit_Tracker(t *testing.T) {
	trainSet, testSet := newTrainTestSets(t)
	tracker := new(mockTracker)
	svd := NewSVD(model.Params{model.NEpochs: 5, model.BatchSize: 32})
	_, err := svd.Fit(context.Background(), trainSet, testSet, NewFitConfig().SetTracker(tracker))
	assert.NoError(t, err)
	assert.Equal(t, 5, tracker.total)
	assert.Equal(t, 5, tracker.updates)
	assert.True(t, tracker.finished)
}

func TestSVD_Predictable(t *testing.T) {
	trainSet, testSet := newTrainTestSets(t)
	svd := NewSVD(model.Params{model.NEpochs: 1, model.BatchSize: 32})
	_, err := svd.Fit(context.Background(), trainSet, testSet, nil)
	assert.NoError(t, err)
	assert.True(t, svd.IsUserPredictable(0))
	assert.False(t, svd.IsUserPredictable(int32(trainSet.CountUsers())))
	assert.False(t, svd.IsItemPredictable(-1))
}

func TestMarshalUnmarshalModel(t *testing.T) {
	trainSet, testSet := newTrainTestSets(t)
	svd := NewSVD(model.Params{
		model.NFactors:    4,
		model.NEpochs:     10,
		model.BatchSize:   32,
		model.RandomState: 42,
	})
	_, err := svd.Fit(context.Background(), trainSet, testSet, nil)
	assert.NoError(t, err)

	buf := bytes.NewBuffer(nil)
	assert.NoError(t, MarshalModel(buf, svd))
	loaded, err := UnmarshalModel(buf)
	assert.NoError(t, err)
	assert.False(t, loaded.Invalid())
	assert.Equal(t, svd.GetParams(), loaded.GetParams())
	for u := 0; u < 4; u++ {
		for i := 0; i < 4; i++ {
			userId, itemId := fmt.Sprintf("u%d", u), fmt.Sprintf("i%d", i)
			assert.InDelta(t, svd.Predict(userId, itemId), loaded.Predict(userId, itemId), 1e-6)
		}
	}
	assert.True(t, loaded.IsUserPredictable(0))
}

func TestUnmarshalModel_Unknown(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, encoding.WriteString(buf, "co_clustering"))
	_, err := UnmarshalModel(buf)
	assert.ErrorIs(t, err, base.ErrInvalidArgument)
}

func TestClear(t *testing.T) {
	svd := newSmallSVD()
	assert.False(t, svd.Invalid())
	svd.Clear()
	assert.True(t, svd.Invalid())
}

func TestScore_BetterThan(t *testing.T) {
	assert.True(t, Score{RMSE: 1}.BetterThan(Score{RMSE: 2}))
	assert.False(t, Score{RMSE: 2}.BetterThan(Score{RMSE: 1}))
	assert.False(t, Score{RMSE: math32.NaN()}.BetterThan(Score{RMSE: 1}))
	assert.True(t, Score{RMSE: 1}.BetterThan(Score{RMSE: math32.NaN()}))
	assert.Equal(t, float32(1), Score{RMSE: 1, MAE: 2}.GetValue())
}
