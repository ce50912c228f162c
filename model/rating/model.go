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
	"encoding/binary"
	"io"

	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/gorse-io/heather/base"
	"github.com/gorse-io/heather/base/encoding"
	"github.com/gorse-io/heather/base/log"
	"github.com/gorse-io/heather/common/floats"
	"github.com/gorse-io/heather/dataset"
	"github.com/gorse-io/heather/model"
)

// Score holds the evaluation of a model on a test set.
type Score struct {
	RMSE float32
	MAE  float32
}

func (score Score) ZapFields() []zap.Field {
	return []zap.Field{
		zap.Float32("RMSE", score.RMSE),
		zap.Float32("MAE", score.MAE),
	}
}

func (score Score) GetValue() float32 {
	return score.RMSE
}

// BetterThan returns true if the score is better than another. Lower RMSE is
// better and NaN never wins.
func (score Score) BetterThan(s Score) bool {
	if math32.IsNaN(score.RMSE) {
		return false
	} else if math32.IsNaN(s.RMSE) {
		return true
	}
	return score.RMSE < s.RMSE
}

type FitConfig struct {
	Verbose   int
	Optimizer Optimizer
	Tracker   model.Tracker
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Verbose: 10,
	}
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) SetOptimizer(optimizer Optimizer) *FitConfig {
	config.Optimizer = optimizer
	return config
}

func (config *FitConfig) SetTracker(tracker model.Tracker) *FitConfig {
	config.Tracker = tracker
	return config
}

func (config *FitConfig) LoadDefaultIfNil() *FitConfig {
	if config == nil {
		return NewFitConfig()
	}
	return config
}

// MatrixFactorization is the interface for rating prediction models.
type MatrixFactorization interface {
	model.Model
	// Fit a model with a train set and parameters.
	Fit(ctx context.Context, trainSet, testSet *dataset.Dataset, config *FitConfig) (Score, error)
	// Predict the rating given by a user (userId) to an item (itemId).
	Predict(userId, itemId string) float32
	// internalPredict predicts a rating given a user index and an item index.
	internalPredict(userIndex, itemIndex int32) float32
	// Score predicts ratings for aligned user and item index vectors.
	Score(userIndices, itemIndices []int32) ([]float32, error)
	// GetUserDict returns the user dictionary.
	GetUserDict() *dataset.FreqDict
	// GetItemDict returns the item dictionary.
	GetItemDict() *dataset.FreqDict
	// IsUserPredictable returns false if the user has no feedback and its embedding was never trained.
	IsUserPredictable(userIndex int32) bool
	// IsItemPredictable returns false if the item has no feedback and its embedding was never trained.
	IsItemPredictable(itemIndex int32) bool
	// Marshal model into byte stream.
	Marshal(w io.Writer) error
	// Unmarshal model from byte stream.
	Unmarshal(r io.Reader) error
}

type BaseMatrixFactorization struct {
	model.BaseModel
	UserDict        *dataset.FreqDict
	ItemDict        *dataset.FreqDict
	UserPredictable *bitset.BitSet
	ItemPredictable *bitset.BitSet
	// Model parameters
	UserFactor [][]float32 // p_u
	ItemFactor [][]float32 // q_i
	UserBias   []float32   // b_u
	ItemBias   []float32   // b_i
	GlobalBias float32     // mu
}

func (baseModel *BaseMatrixFactorization) Init(trainSet *dataset.Dataset) {
	baseModel.UserDict = trainSet.GetUserDict()
	baseModel.ItemDict = trainSet.GetItemDict()
	// set user trained flags
	baseModel.UserPredictable = bitset.New(uint(baseModel.UserDict.Count()))
	for userIndex := 0; userIndex < baseModel.UserDict.Count(); userIndex++ {
		if len(trainSet.GetUserFeedback()[userIndex]) > 0 {
			baseModel.UserPredictable.Set(uint(userIndex))
		}
	}
	// set item trained flags
	baseModel.ItemPredictable = bitset.New(uint(baseModel.ItemDict.Count()))
	for itemIndex := 0; itemIndex < baseModel.ItemDict.Count(); itemIndex++ {
		if len(trainSet.GetItemFeedback()[itemIndex]) > 0 {
			baseModel.ItemPredictable.Set(uint(itemIndex))
		}
	}
}

func (baseModel *BaseMatrixFactorization) GetUserDict() *dataset.FreqDict {
	return baseModel.UserDict
}

func (baseModel *BaseMatrixFactorization) GetItemDict() *dataset.FreqDict {
	return baseModel.ItemDict
}

// IsUserPredictable returns false if the user has no feedback and its embedding was never trained.
func (baseModel *BaseMatrixFactorization) IsUserPredictable(userIndex int32) bool {
	if userIndex < 0 || int(userIndex) >= baseModel.UserDict.Count() {
		return false
	}
	return baseModel.UserPredictable.Test(uint(userIndex))
}

// IsItemPredictable returns false if the item has no feedback and its embedding was never trained.
func (baseModel *BaseMatrixFactorization) IsItemPredictable(itemIndex int32) bool {
	if itemIndex < 0 || int(itemIndex) >= baseModel.ItemDict.Count() {
		return false
	}
	return baseModel.ItemPredictable.Test(uint(itemIndex))
}

// Predict predicts the rating given by a user to an item by identifier.
// Unknown users and items fall back to the terms that remain defined.
func (baseModel *BaseMatrixFactorization) Predict(userId, itemId string) float32 {
	userIndex := baseModel.UserDict.Index(userId)
	itemIndex := baseModel.ItemDict.Index(itemId)
	if userIndex == dataset.NotId {
		log.Logger().Warn("unknown user", zap.String("user_id", userId))
	}
	if itemIndex == dataset.NotId {
		log.Logger().Warn("unknown item", zap.String("item_id", itemId))
	}
	return baseModel.internalPredict(int32(userIndex), int32(itemIndex))
}

func (baseModel *BaseMatrixFactorization) internalPredict(userIndex, itemIndex int32) float32 {
	ret := baseModel.GlobalBias
	// + b_u
	if userIndex >= 0 && int(userIndex) < len(baseModel.UserBias) {
		ret += baseModel.UserBias[userIndex]
	}
	// + b_i
	if itemIndex >= 0 && int(itemIndex) < len(baseModel.ItemBias) {
		ret += baseModel.ItemBias[itemIndex]
	}
	// + q_i^T p_u
	if userIndex >= 0 && int(userIndex) < len(baseModel.UserFactor) &&
		itemIndex >= 0 && int(itemIndex) < len(baseModel.ItemFactor) {
		ret += floats.Dot(baseModel.UserFactor[userIndex], baseModel.ItemFactor[itemIndex])
	}
	return ret
}

// Score predicts ratings for aligned user and item index vectors. Every index
// must be in range, unlike Predict there is no fallback for unknowns.
func (baseModel *BaseMatrixFactorization) Score(userIndices, itemIndices []int32) ([]float32, error) {
	if len(userIndices) != len(itemIndices) {
		return nil, errors.Annotatef(base.ErrDimensionMismatch,
			"users %d, items %d", len(userIndices), len(itemIndices))
	}
	predictions := make([]float32, len(userIndices))
	for i := range userIndices {
		if userIndices[i] < 0 || int(userIndices[i]) >= len(baseModel.UserFactor) {
			return nil, errors.Annotatef(base.ErrIndexOutOfRange,
				"user index %d out of [0, %d)", userIndices[i], len(baseModel.UserFactor))
		}
		if itemIndices[i] < 0 || int(itemIndices[i]) >= len(baseModel.ItemFactor) {
			return nil, errors.Annotatef(base.ErrIndexOutOfRange,
				"item index %d out of [0, %d)", itemIndices[i], len(baseModel.ItemFactor))
		}
		predictions[i] = baseModel.internalPredict(userIndices[i], itemIndices[i])
	}
	return predictions, nil
}

// Marshal model into byte stream.
func (baseModel *BaseMatrixFactorization) Marshal(w io.Writer) error {
	// write params
	if err := encoding.WriteGob(w, baseModel.Params); err != nil {
		return errors.Trace(err)
	}
	// write global bias
	if err := binary.Write(w, binary.LittleEndian, baseModel.GlobalBias); err != nil {
		return errors.Trace(err)
	}
	// write the number of factors
	nFactors := 0
	if len(baseModel.UserFactor) > 0 {
		nFactors = len(baseModel.UserFactor[0])
	} else if len(baseModel.ItemFactor) > 0 {
		nFactors = len(baseModel.ItemFactor[0])
	}
	if err := binary.Write(w, binary.LittleEndian, int64(nFactors)); err != nil {
		return errors.Trace(err)
	}
	// write user embeddings
	if err := binary.Write(w, binary.LittleEndian, int64(len(baseModel.UserFactor))); err != nil {
		return errors.Trace(err)
	}
	for userIndex := 0; userIndex < len(baseModel.UserFactor); userIndex++ {
		userId, _ := baseModel.UserDict.String(userIndex)
		if err := encoding.WriteString(w, userId); err != nil {
			return errors.Trace(err)
		}
	}
	if err := encoding.WriteMatrix(w, baseModel.UserFactor); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.LittleEndian, baseModel.UserBias); err != nil {
		return errors.Trace(err)
	}
	// write item embeddings
	if err := binary.Write(w, binary.LittleEndian, int64(len(baseModel.ItemFactor))); err != nil {
		return errors.Trace(err)
	}
	for itemIndex := 0; itemIndex < len(baseModel.ItemFactor); itemIndex++ {
		itemId, _ := baseModel.ItemDict.String(itemIndex)
		if err := encoding.WriteString(w, itemId); err != nil {
			return errors.Trace(err)
		}
	}
	if err := encoding.WriteMatrix(w, baseModel.ItemFactor); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.LittleEndian, baseModel.ItemBias); err != nil {
		return errors.Trace(err)
	}
	// write trained flags
	if _, err := baseModel.UserPredictable.WriteTo(w); err != nil {
		return errors.Trace(err)
	}
	if _, err := baseModel.ItemPredictable.WriteTo(w); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// Unmarshal model from byte stream.
func (baseModel *BaseMatrixFactorization) Unmarshal(r io.Reader) error {
	// read params
	if err := encoding.ReadGob(r, &baseModel.Params); err != nil {
		return errors.Trace(err)
	}
	// read global bias
	if err := binary.Read(r, binary.LittleEndian, &baseModel.GlobalBias); err != nil {
		return errors.Trace(err)
	}
	// read the number of factors
	var nFactors int64
	if err := binary.Read(r, binary.LittleEndian, &nFactors); err != nil {
		return errors.Trace(err)
	}
	// read user embeddings
	var userCount int64
	if err := binary.Read(r, binary.LittleEndian, &userCount); err != nil {
		return errors.Trace(err)
	}
	baseModel.UserDict = dataset.NewFreqDict()
	for i := 0; i < int(userCount); i++ {
		userId, err := encoding.ReadString(r)
		if err != nil {
			return errors.Trace(err)
		}
		baseModel.UserDict.NotCount(userId)
	}
	baseModel.UserFactor = base.NewMatrix32(int(userCount), int(nFactors))
	if err := encoding.ReadMatrix(r, baseModel.UserFactor); err != nil {
		return errors.Trace(err)
	}
	baseModel.UserBias = make([]float32, userCount)
	if err := binary.Read(r, binary.LittleEndian, baseModel.UserBias); err != nil {
		return errors.Trace(err)
	}
	// read item embeddings
	var itemCount int64
	if err := binary.Read(r, binary.LittleEndian, &itemCount); err != nil {
		return errors.Trace(err)
	}
	baseModel.ItemDict = dataset.NewFreqDict()
	for i := 0; i < int(itemCount); i++ {
		itemId, err := encoding.ReadString(r)
		if err != nil {
			return errors.Trace(err)
		}
		baseModel.ItemDict.NotCount(itemId)
	}
	baseModel.ItemFactor = base.NewMatrix32(int(itemCount), int(nFactors))
	if err := encoding.ReadMatrix(r, baseModel.ItemFactor); err != nil {
		return errors.Trace(err)
	}
	baseModel.ItemBias = make([]float32, itemCount)
	if err := binary.Read(r, binary.LittleEndian, baseModel.ItemBias); err != nil {
		return errors.Trace(err)
	}
	// read trained flags
	baseModel.UserPredictable = bitset.New(uint(userCount))
	if _, err := baseModel.UserPredictable.ReadFrom(r); err != nil {
		return errors.Trace(err)
	}
	baseModel.ItemPredictable = bitset.New(uint(itemCount))
	if _, err := baseModel.ItemPredictable.ReadFrom(r); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (baseModel *BaseMatrixFactorization) Clear() {
	baseModel.UserDict = nil
	baseModel.ItemDict = nil
	baseModel.UserPredictable = nil
	baseModel.ItemPredictable = nil
	baseModel.UserFactor = nil
	baseModel.ItemFactor = nil
	baseModel.UserBias = nil
	baseModel.ItemBias = nil
	baseModel.GlobalBias = 0
}

func (baseModel *BaseMatrixFactorization) Invalid() bool {
	return baseModel == nil ||
		baseModel.UserDict == nil ||
		baseModel.ItemDict == nil ||
		baseModel.UserFactor == nil ||
		baseModel.ItemFactor == nil
}

func GetModelName(m model.Model) string {
	switch m.(type) {
	case *SVD:
		return "svd"
	default:
		return "unknown"
	}
}

func MarshalModel(w io.Writer, m MatrixFactorization) error {
	if err := encoding.WriteString(w, GetModelName(m)); err != nil {
		return errors.Trace(err)
	}
	if err := m.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func UnmarshalModel(r io.Reader) (MatrixFactorization, error) {
	name, err := encoding.ReadString(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	switch name {
	case "svd":
		var svd SVD
		if err := svd.Unmarshal(r); err != nil {
			return nil, errors.Trace(err)
		}
		return &svd, nil
	}
	return nil, errors.Annotatef(base.ErrInvalidArgument, "unknown model %v", name)
}
