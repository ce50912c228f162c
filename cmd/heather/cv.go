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

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gorse-io/heather/base/log"
	"github.com/gorse-io/heather/base/progress"
	"github.com/gorse-io/heather/model/rating"
)

var cvCommand = &cobra.Command{
	Use:   "cv DATA_FILE",
	Short: "Evaluate a model by k-fold cross-validation.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bindConfig(cmd)
		data := loadDataset(args[0])
		svd := rating.NewSVD(parseParams(cmd))
		config := rating.NewFitConfig().SetVerbose(viper.GetInt("verbose"))
		tracer := progress.NewTracer("cv")
		ctx, span := tracer.Start(cmd.Context(), "cv", 1)
		scores, err := rating.CrossValidate(ctx, svd, data,
			viper.GetInt("n-folds"), viper.GetInt64("seed"), config)
		if err != nil {
			span.Fail(err)
			log.Logger().Debug("progress", zap.Any("spans", tracer.List()))
			log.Logger().Fatal("failed to cross-validate", zap.Error(err))
		}
		span.End()
		log.Logger().Debug("progress", zap.Any("spans", tracer.List()))
		for i, score := range scores {
			fmt.Printf("fold %d: RMSE = %v, MAE = %v\n", i+1, score.RMSE, score.MAE)
		}
		mean := rating.MeanScore(scores)
		fmt.Printf("mean: RMSE = %v, MAE = %v\n", mean.RMSE, mean.MAE)
	},
}

func init() {
	addDataFlags(cvCommand.Flags())
	addModelFlags(cvCommand.Flags())
	cvCommand.Flags().IntP("n-folds", "k", 5, "number of folds")
}
