// Copyright 2025 gorse Project Authors
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

package dataset

import (
	"github.com/chewxy/math32"
	"github.com/juju/errors"

	"github.com/gorse-io/heather/base"
)

// Dataset is an immutable-by-index collection of explicit feedback. User and
// item identifiers are mapped to dense indices by shared dictionaries, so
// subsets produced by splitters keep the indexing of the parent dataset.
type Dataset struct {
	userDict     *FreqDict
	itemDict     *FreqDict
	userIndices  []int32
	itemIndices  []int32
	ratings      []float32
	userFeedback [][]int32
	itemFeedback [][]int32
}

func NewDataset() *Dataset {
	return &Dataset{
		userDict: NewFreqDict(),
		itemDict: NewFreqDict(),
	}
}

// AddRating appends an interaction. Unseen identifiers are registered in the
// dictionaries on the fly.
func (d *Dataset) AddRating(userId, itemId string, rating float32) {
	userIndex := int32(d.userDict.Id(userId))
	itemIndex := int32(d.itemDict.Id(itemId))
	d.userIndices = append(d.userIndices, userIndex)
	d.itemIndices = append(d.itemIndices, itemIndex)
	d.ratings = append(d.ratings, rating)
	for int(userIndex) >= len(d.userFeedback) {
		d.userFeedback = append(d.userFeedback, nil)
	}
	for int(itemIndex) >= len(d.itemFeedback) {
		d.itemFeedback = append(d.itemFeedback, nil)
	}
	d.userFeedback[userIndex] = append(d.userFeedback[userIndex], itemIndex)
	d.itemFeedback[itemIndex] = append(d.itemFeedback[itemIndex], userIndex)
}

// Count returns the number of interactions.
func (d *Dataset) Count() int {
	return len(d.ratings)
}

// CountUsers returns the number of distinct users in the dictionary.
func (d *Dataset) CountUsers() int {
	return d.userDict.Count()
}

// CountItems returns the number of distinct items in the dictionary.
func (d *Dataset) CountItems() int {
	return d.itemDict.Count()
}

// Get returns the i-th interaction as (user index, item index, rating).
func (d *Dataset) Get(i int) (int32, int32, float32) {
	return d.userIndices[i], d.itemIndices[i], d.ratings[i]
}

func (d *Dataset) GetUserDict() *FreqDict {
	return d.userDict
}

func (d *Dataset) GetItemDict() *FreqDict {
	return d.itemDict
}

// GetUserFeedback returns the item indices rated by each user.
func (d *Dataset) GetUserFeedback() [][]int32 {
	return d.userFeedback
}

// GetItemFeedback returns the user indices that rated each item.
func (d *Dataset) GetItemFeedback() [][]int32 {
	return d.itemFeedback
}

// Mean returns the average rating.
func (d *Dataset) Mean() float32 {
	if len(d.ratings) == 0 {
		return 0
	}
	sum := float32(0)
	for _, r := range d.ratings {
		sum += r
	}
	return sum / float32(len(d.ratings))
}

// SubSet creates a dataset from selected positions. The dictionaries are
// shared with the parent, so dense indices stay valid across subsets.
func (d *Dataset) SubSet(positions []int) *Dataset {
	subset := &Dataset{
		userDict:     d.userDict,
		itemDict:     d.itemDict,
		userIndices:  make([]int32, 0, len(positions)),
		itemIndices:  make([]int32, 0, len(positions)),
		ratings:      make([]float32, 0, len(positions)),
		userFeedback: make([][]int32, d.userDict.Count()),
		itemFeedback: make([][]int32, d.itemDict.Count()),
	}
	for _, p := range positions {
		userIndex, itemIndex := d.userIndices[p], d.itemIndices[p]
		subset.userIndices = append(subset.userIndices, userIndex)
		subset.itemIndices = append(subset.itemIndices, itemIndex)
		subset.ratings = append(subset.ratings, d.ratings[p])
		subset.userFeedback[userIndex] = append(subset.userFeedback[userIndex], itemIndex)
		subset.itemFeedback[itemIndex] = append(subset.itemFeedback[itemIndex], userIndex)
	}
	return subset
}

// RatioSplit splits a dataset to a training set and a test set by holding out
// a fraction of interactions. The test size is the fraction rounded to the
// nearest integer and the assignment is a deterministic function of the seed.
func RatioSplit(data *Dataset, testFraction float32, seed int64) (*Dataset, *Dataset, error) {
	if data.Count() == 0 {
		return nil, nil, errors.Annotate(base.ErrInvalidArgument, "dataset is empty")
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, errors.Annotatef(base.ErrInvalidArgument,
			"test fraction %v out of range (0, 1)", testFraction)
	}
	testSize := int(math32.Round(testFraction * float32(data.Count())))
	perm := base.NewRandomGenerator(seed).Perm(data.Count())
	test := data.SubSet(perm[:testSize])
	train := data.SubSet(perm[testSize:])
	return train, test, nil
}

// KFoldSplit splits a dataset into k folds for cross-validation. Each
// interaction appears in exactly one test fold.
func KFoldSplit(data *Dataset, k int, seed int64) ([]*Dataset, []*Dataset, error) {
	if k < 2 || k > data.Count() {
		return nil, nil, errors.Annotatef(base.ErrInvalidArgument,
			"number of folds %d out of range [2, %d]", k, data.Count())
	}
	perm := base.NewRandomGenerator(seed).Perm(data.Count())
	trains := make([]*Dataset, k)
	tests := make([]*Dataset, k)
	foldSize := data.Count() / k
	begin, end := 0, 0
	for i := 0; i < k; i++ {
		end += foldSize
		if i < data.Count()%k {
			end++
		}
		tests[i] = data.SubSet(perm[begin:end])
		trains[i] = data.SubSet(append(append([]int{}, perm[:begin]...), perm[end:]...))
		begin = end
	}
	return trains, tests, nil
}
