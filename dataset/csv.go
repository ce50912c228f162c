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
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"github.com/gorse-io/heather/base"
)

// LoadDataFromCSV loads a dataset from a delimited text file. Each line holds
// a user identifier, an item identifier and a rating. Extra columns (such as
// timestamps) are ignored.
func LoadDataFromCSV(path, sep string, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	data := NewDataset()
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		if hasHeader && line == 1 {
			continue
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, sep)
		if len(fields) < 3 {
			return nil, errors.Annotatef(base.ErrInvalidArgument,
				"%s:%d: expect at least 3 fields, got %d", path, line, len(fields))
		}
		rating, err := strconv.ParseFloat(fields[2], 32)
		if err != nil {
			return nil, errors.Annotatef(base.ErrInvalidArgument,
				"%s:%d: parse rating %q", path, line, fields[2])
		}
		data.AddRating(fields[0], fields[1], float32(rating))
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}
