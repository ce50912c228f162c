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
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gorse-io/heather/base/log"
	"github.com/gorse-io/heather/dataset"
	"github.com/gorse-io/heather/model"
)

func addDataFlags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "configuration file path")
	flags.String("csv-sep", ",", "load CSV file with separator")
	flags.Bool("csv-header", false, "load CSV file with header")
	flags.Int64("seed", 0, "random seed")
	flags.Int("verbose", 10, "verbose period")
}

func addModelFlags(flags *pflag.FlagSet) {
	flags.Float64("lr", 0.005, "learning rate")
	flags.Float64("reg", 0.02, "regularization strength")
	flags.Int("n-epochs", 20, "number of epochs")
	flags.Int("n-factors", 32, "number of factors")
	flags.Int("batch-size", 128, "size of mini-batches")
	flags.Float64("init-mean", 0, "mean of gaussian initial parameters")
	flags.Float64("init-std", 0, "standard deviation of gaussian initial parameters")
	flags.Bool("no-bias", false, "disable bias terms")
}

// bindConfig binds flags to viper and overlays an optional config file.
// Flags win over the config file, the config file wins over defaults.
func bindConfig(cmd *cobra.Command) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		log.Logger().Fatal("failed to bind flags", zap.Error(err))
	}
	if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			log.Logger().Fatal("failed to read config",
				zap.String("config", configPath), zap.Error(err))
		}
		log.Logger().Info("load config", zap.String("config", configPath))
	}
}

func parseParams(cmd *cobra.Command) model.Params {
	params := model.Params{
		model.Lr:          float32(viper.GetFloat64("lr")),
		model.Reg:         float32(viper.GetFloat64("reg")),
		model.NEpochs:     viper.GetInt("n-epochs"),
		model.NFactors:    viper.GetInt("n-factors"),
		model.BatchSize:   viper.GetInt("batch-size"),
		model.RandomState: viper.GetInt64("seed"),
		model.UseBias:     !viper.GetBool("no-bias"),
	}
	// keep the model defaults unless set explicitly
	if cmd.Flags().Changed("init-mean") || viper.InConfig("init-mean") {
		params[model.InitMean] = float32(viper.GetFloat64("init-mean"))
	}
	if cmd.Flags().Changed("init-std") || viper.InConfig("init-std") {
		params[model.InitStdDev] = float32(viper.GetFloat64("init-std"))
	}
	return params
}

func loadDataset(path string) *dataset.Dataset {
	data, err := dataset.LoadDataFromCSV(path, viper.GetString("csv-sep"), viper.GetBool("csv-header"))
	if err != nil {
		log.Logger().Fatal("failed to load dataset",
			zap.String("path", path), zap.Error(err))
	}
	log.Logger().Info("load dataset",
		zap.String("path", path),
		zap.Int("n_interactions", data.Count()),
		zap.Int("n_users", data.CountUsers()),
		zap.Int("n_items", data.CountItems()))
	return data
}
