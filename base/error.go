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

package base

import (
	"github.com/juju/errors"
)

// Error kinds raised by dataset, model and evaluator operations. Callers
// match them with errors.Is since they are usually annotated with context
// before being returned.
const (
	// ErrInvalidArgument reports a bad configuration value, such as a
	// non-positive epoch count or a test fraction outside (0, 1).
	ErrInvalidArgument = errors.ConstError("invalid argument")
	// ErrIndexOutOfRange reports a user or item index outside the vocabulary
	// a model was built with.
	ErrIndexOutOfRange = errors.ConstError("index out of range")
	// ErrDimensionMismatch reports sequences or vectors of unequal length
	// where equal length is required.
	ErrDimensionMismatch = errors.ConstError("dimension mismatch")
)
