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

	"github.com/gorse-io/heather/base"
)

func TestMSE(t *testing.T) {
	// identical vectors have zero loss
	mse, err := MSE([]float32{1, 2, 3}, []float32{1, 2, 3})
	assert.NoError(t, err)
	assert.Zero(t, mse)
	// uniform unit error has unit loss
	mse, err = MSE([]float32{0, 0}, []float32{1, 1})
	assert.NoError(t, err)
	assert.Equal(t, float32(1), mse)
	// loss is symmetric
	mse, err = MSE([]float32{1, 1}, []float32{0, 0})
	assert.NoError(t, err)
	assert.Equal(t, float32(1), mse)

	_, err = MSE([]float32{1}, []float32{1, 2})
	assert.ErrorIs(t, err, base.ErrDimensionMismatch)
	_, err = MSE(nil, nil)
	assert.ErrorIs(t, err, base.ErrInvalidArgument)
}

// The squared RMSE metric and the MSE loss must agree on the same vectors.
func TestMSE_AgreesWithRMSE(t *testing.T) {
	observed := []float32{1, 2, 3}
	predicted := []float32{2, 2, 5}
	mse, err := MSE(observed, predicted)
	assert.NoError(t, err)
	rmse := RMSE(observed, predicted)
	assert.InDelta(t, mse, rmse*rmse, 1e-6)
	mae := MAE(observed, predicted)
	assert.InDelta(t, 1, mae, 1e-6)
}
