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
	"fmt"
	"io"
	"time"

	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/gorse-io/heather/base"
	"github.com/gorse-io/heather/base/log"
	"github.com/gorse-io/heather/base/progress"
	"github.com/gorse-io/heather/common/floats"
	"github.com/gorse-io/heather/dataset"
	"github.com/gorse-io/heather/model"
)

// SVD is the matrix factorization algorithm popularized by Simon Funk during
// the Netflix Prize. The prediction \hat{r}_{ui} is set as:
//
//	\hat{r}_{ui} = mu + b_u + b_i + q_i^T p_u
//
// Embeddings are fitted by mini-batch SGD on the squared error. Hyper-parameters:
//
//	UseBias    - Use bias terms. Default is true.
//	Reg        - The regularization strength on embeddings. Default is 0.02.
//	Lr         - The learning rate of SGD. Default is 0.005.
//	NFactors   - The number of latent factors. Default is 32.
//	NEpochs    - The number of epochs of the SGD procedure. Default is 20.
//	BatchSize  - The size of mini-batches. Default is 128.
//	InitMean   - The mean of initial random latent factors. Default is 0.
//	InitStdDev - The standard deviation of initial random latent factors.
//	             Default is 1/sqrt(NFactors).
type SVD struct {
	BaseMatrixFactorization
	// Hyper parameters
	useBias    bool
	nFactors   int
	nEpochs    int
	batchSize  int
	lr         float32
	reg        float32
	initMean   float32
	initStdDev float32
}

// NewSVD creates a SVD model.
func NewSVD(params model.Params) *SVD {
	svd := new(SVD)
	svd.SetParams(params)
	return svd
}

// SetParams sets hyper-parameters of the SVD model.
func (svd *SVD) SetParams(params model.Params) {
	svd.BaseMatrixFactorization.SetParams(params)
	svd.useBias = svd.Params.GetBool(model.UseBias, true)
	svd.nFactors = svd.Params.GetInt(model.NFactors, 32)
	svd.nEpochs = svd.Params.GetInt(model.NEpochs, 20)
	svd.batchSize = svd.Params.GetInt(model.BatchSize, 128)
	svd.lr = svd.Params.GetFloat32(model.Lr, 0.005)
	svd.reg = svd.Params.GetFloat32(model.Reg, 0.02)
	svd.initMean = svd.Params.GetFloat32(model.InitMean, 0)
	svd.initStdDev = svd.Params.GetFloat32(model.InitStdDev, 1/math32.Sqrt(float32(svd.nFactors)))
}

// Init allocates embeddings for a train set. Latent factors are drawn from a
// gaussian, biases start at zero.
func (svd *SVD) Init(trainSet *dataset.Dataset) {
	svd.UserFactor = svd.GetRandomGenerator().NormalMatrix(
		trainSet.CountUsers(), svd.nFactors, svd.initMean, svd.initStdDev)
	svd.ItemFactor = svd.GetRandomGenerator().NormalMatrix(
		trainSet.CountItems(), svd.nFactors, svd.initMean, svd.initStdDev)
	svd.UserBias = make([]float32, trainSet.CountUsers())
	svd.ItemBias = make([]float32, trainSet.CountItems())
	svd.GlobalBias = 0
	svd.BaseMatrixFactorization.Init(trainSet)
}

// Fit the SVD model. Each epoch shuffles the train set with a generator
// seeded by RandomState plus the epoch number, so training is a pure function
// of the data and the seed. Within a mini-batch all predictions use the
// parameters from before the batch, and only rows touched by the batch are
// updated. Training stops before NEpochs if the epoch loss or the evaluation
// score becomes NaN or infinite; the returned score is always computed on the
// final parameters.
func (svd *SVD) Fit(ctx context.Context, trainSet, testSet *dataset.Dataset, config *FitConfig) (Score, error) {
	config = config.LoadDefaultIfNil()
	if trainSet == nil || trainSet.Count() == 0 {
		return Score{}, errors.Annotate(base.ErrInvalidArgument, "train set is empty")
	}
	if svd.nEpochs <= 0 || svd.batchSize <= 0 {
		return Score{}, errors.Annotatef(base.ErrInvalidArgument,
			"epochs %d and batch size %d must be positive", svd.nEpochs, svd.batchSize)
	}
	evalSet := testSet
	if evalSet == nil || evalSet.Count() == 0 {
		evalSet = trainSet
	}
	testSize := 0
	if testSet != nil {
		testSize = testSet.Count()
	}
	log.Logger().Info("fit svd",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Int("test_set_size", testSize),
		zap.Any("params", svd.GetParams()),
		zap.Any("config", config))
	optimizer := config.Optimizer
	if optimizer == nil {
		optimizer = NewSGD(svd.lr)
	}
	svd.Init(trainSet)
	if config.Tracker != nil {
		config.Tracker.Start(svd.nEpochs)
	}
	evalStart := time.Now()
	scores, err := Evaluate(svd, evalSet, RMSE, MAE)
	if err != nil {
		return Score{}, errors.Trace(err)
	}
	log.Logger().Debug(fmt.Sprintf("fit svd %v/%v", 0, svd.nEpochs),
		zap.String("eval_time", time.Since(evalStart).String()),
		zap.Float32("RMSE", scores[0]),
		zap.Float32("MAE", scores[1]))
	// Mini-batch gradient buffers. Rows are assigned to users and items in
	// the order the batch first touches them.
	userGrad := base.NewMatrix32(svd.batchSize, svd.nFactors)
	itemGrad := base.NewMatrix32(svd.batchSize, svd.nFactors)
	userBiasGrad := make([]float32, svd.batchSize)
	itemBiasGrad := make([]float32, svd.batchSize)
	touchedUsers := make([]int32, 0, svd.batchSize)
	touchedItems := make([]int32, 0, svd.batchSize)
	userSlot := make(map[int32]int, svd.batchSize)
	itemSlot := make(map[int32]int, svd.batchSize)
	scratch := make([]float32, 1)
	globalParam := make([]float32, 1)
	// Training
	_, span := progress.Start(ctx, "SVD.Fit", svd.nEpochs)
	for epoch := 1; epoch <= svd.nEpochs; epoch++ {
		fitStart := time.Now()
		rng := base.NewRandomGenerator(svd.GetRandomState() + int64(epoch))
		perm := rng.Perm(trainSet.Count())
		cost := float32(0)
		for batchStart := 0; batchStart < len(perm); batchStart += svd.batchSize {
			batchEnd := min(batchStart+svd.batchSize, len(perm))
			batch := perm[batchStart:batchEnd]
			touchedUsers = touchedUsers[:0]
			touchedItems = touchedItems[:0]
			clear(userSlot)
			clear(itemSlot)
			globalGrad := float32(0)
			// accumulate gradients against pre-batch parameters
			for _, position := range batch {
				userIndex, itemIndex, rating := trainSet.Get(position)
				residual := svd.internalPredict(userIndex, itemIndex) - rating
				cost += residual * residual
				slot, exist := userSlot[userIndex]
				if !exist {
					slot = len(touchedUsers)
					userSlot[userIndex] = slot
					touchedUsers = append(touchedUsers, userIndex)
					floats.Zero(userGrad[slot])
					userBiasGrad[slot] = 0
				}
				floats.MulConstAdd(svd.ItemFactor[itemIndex], residual, userGrad[slot])
				userBiasGrad[slot] += residual
				slot, exist = itemSlot[itemIndex]
				if !exist {
					slot = len(touchedItems)
					itemSlot[itemIndex] = slot
					touchedItems = append(touchedItems, itemIndex)
					floats.Zero(itemGrad[slot])
					itemBiasGrad[slot] = 0
				}
				floats.MulConstAdd(svd.UserFactor[userIndex], residual, itemGrad[slot])
				itemBiasGrad[slot] += residual
				globalGrad += residual
			}
			// apply mean gradients to touched rows only
			invBatch := 1 / float32(len(batch))
			for slot, userIndex := range touchedUsers {
				floats.MulConst(userGrad[slot], invBatch)
				floats.MulConstAdd(svd.UserFactor[userIndex], svd.reg, userGrad[slot])
				optimizer.Update(svd.UserFactor[userIndex], userGrad[slot])
				if svd.useBias {
					scratch[0] = userBiasGrad[slot] * invBatch
					optimizer.Update(svd.UserBias[userIndex:userIndex+1], scratch)
				}
			}
			for slot, itemIndex := range touchedItems {
				floats.MulConst(itemGrad[slot], invBatch)
				floats.MulConstAdd(svd.ItemFactor[itemIndex], svd.reg, itemGrad[slot])
				optimizer.Update(svd.ItemFactor[itemIndex], itemGrad[slot])
				if svd.useBias {
					scratch[0] = itemBiasGrad[slot] * invBatch
					optimizer.Update(svd.ItemBias[itemIndex:itemIndex+1], scratch)
				}
			}
			if svd.useBias {
				globalParam[0] = svd.GlobalBias
				scratch[0] = globalGrad * invBatch
				optimizer.Update(globalParam, scratch)
				svd.GlobalBias = globalParam[0]
			}
		}
		loss := cost / float32(trainSet.Count())
		fitTime := time.Since(fitStart)
		if config.Tracker != nil {
			config.Tracker.Update(epoch, loss)
		}
		if epoch%config.Verbose == 0 || epoch == svd.nEpochs {
			evalStart = time.Now()
			scores, err = Evaluate(svd, evalSet, RMSE, MAE)
			if err != nil {
				return Score{}, errors.Trace(err)
			}
			log.Logger().Debug(fmt.Sprintf("fit svd %v/%v", epoch, svd.nEpochs),
				zap.String("fit_time", fitTime.String()),
				zap.String("eval_time", time.Since(evalStart).String()),
				zap.Float32("loss", loss),
				zap.Float32("RMSE", scores[0]),
				zap.Float32("MAE", scores[1]))
		}
		if math32.IsNaN(loss) || math32.IsInf(loss, 0) || math32.IsNaN(scores[0]) {
			log.Logger().Warn("model diverged",
				zap.Float32("loss", loss),
				zap.Int("epoch", epoch))
			break
		}
		span.Add(1)
	}
	span.End()
	if config.Tracker != nil {
		config.Tracker.Finish()
	}
	scores, err = Evaluate(svd, evalSet, RMSE, MAE)
	if err != nil {
		return Score{}, errors.Trace(err)
	}
	score := Score{RMSE: scores[0], MAE: scores[1]}
	log.Logger().Info("fit svd complete", score.ZapFields()...)
	return score, nil
}

// Marshal model into byte stream.
func (svd *SVD) Marshal(w io.Writer) error {
	return errors.Trace(svd.BaseMatrixFactorization.Marshal(w))
}

// Unmarshal model from byte stream.
func (svd *SVD) Unmarshal(r io.Reader) error {
	if err := svd.BaseMatrixFactorization.Unmarshal(r); err != nil {
		return errors.Trace(err)
	}
	svd.SetParams(svd.Params)
	return nil
}
