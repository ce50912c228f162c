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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gorse-io/heather/base/log"
	"github.com/gorse-io/heather/base/progress"
	"github.com/gorse-io/heather/dataset"
	"github.com/gorse-io/heather/model/rating"
)

var testCommand = &cobra.Command{
	Use:   "test DATA_FILE",
	Short: "Fit a model on a train split and evaluate it on the held-out split.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bindConfig(cmd)
		data := loadDataset(args[0])
		trainSet, testSet, err := dataset.RatioSplit(data,
			float32(viper.GetFloat64("test-ratio")), viper.GetInt64("seed"))
		if err != nil {
			log.Logger().Fatal("failed to split dataset", zap.Error(err))
		}
		svd := rating.NewSVD(parseParams(cmd))
		config := rating.NewFitConfig().
			SetVerbose(viper.GetInt("verbose")).
			SetTracker(newProgressTracker())
		tracer := progress.NewTracer("test")
		ctx, span := tracer.Start(cmd.Context(), "Fit", 1)
		score, err := svd.Fit(ctx, trainSet, testSet, config)
		if err != nil {
			span.Fail(err)
			log.Logger().Debug("progress", zap.Any("spans", tracer.List()))
			log.Logger().Fatal("failed to fit model", zap.Error(err))
		}
		span.End()
		log.Logger().Debug("progress", zap.Any("spans", tracer.List()))
		fmt.Printf("RMSE = %v, MAE = %v\n", score.RMSE, score.MAE)
		if output, _ := cmd.Flags().GetString("output"); output != "" {
			file, err := os.Create(output)
			if err != nil {
				log.Logger().Fatal("failed to create model file", zap.Error(err))
			}
			defer file.Close()
			if err := rating.MarshalModel(file, svd); err != nil {
				log.Logger().Fatal("failed to save model", zap.Error(err))
			}
			log.Logger().Info("save model", zap.String("path", output))
		}
	},
}

func init() {
	addDataFlags(testCommand.Flags())
	addModelFlags(testCommand.Flags())
	testCommand.Flags().Float64("test-ratio", 0.2, "test set ratio")
	testCommand.Flags().StringP("output", "o", "", "save the fitted model to a file")
}
