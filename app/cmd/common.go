// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"path"

	"github.com/annchain/dagcommit/common/goroutine"
	"github.com/annchain/dagcommit/common/io"
	"github.com/annchain/dagcommit/common/utilfuncs"
	"github.com/annchain/dagcommit/core"
	"github.com/annchain/dagcommit/metrics"
	"github.com/annchain/dagcommit/mylog"
	"github.com/annchain/dagcommit/ogdb"
	"github.com/annchain/dagcommit/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const storeFolder = "store"

// initLogger uses viper to get the log path and level. It should be called by all other commands
func initLogger() {
	mylog.InitLogger(mylog.LogConfig{
		Dir:        viper.GetString("log.dir"),
		Stdout:     viper.GetBool("log.stdout"),
		File:       viper.GetBool("log.file"),
		Level:      viper.GetString("log.level"),
		LineNumber: viper.GetBool("log.line_number"),
		ByLevel:    viper.GetBool("log.by_level"),
	})
}

func storeConfig(v *viper.Viper) ogdb.LevelDBConfig {
	return ogdb.LevelDBConfig{
		Path:      path.Join(v.GetString("datadir"), storeFolder),
		CacheSize: v.GetInt("leveldb.cache"),
		Handles:   v.GetInt("leveldb.handles"),
	}
}

func openStore(v *viper.Viper) *ogdb.LevelDBStore {
	err := io.EnsureDirs(v.GetString("datadir"))
	utilfuncs.PanicIfError(err, "creating data folder")
	store, err := ogdb.NewLevelDBStore(storeConfig(v))
	utilfuncs.PanicIfError(err, "opening store")
	return store
}

func dagStateConfig(v *viper.Viper) core.DagStateConfig {
	config := core.DefaultDagStateConfig()
	if v.IsSet("dag.cached_rounds") {
		config.CachedRounds = types.Round(v.GetUint32("dag.cached_rounds"))
	}
	if v.IsSet("dag.block_cache_size") {
		config.BlockCacheSize = v.GetInt("dag.block_cache_size")
	}
	if v.IsSet("dag.block_cache_expiration_seconds") {
		config.BlockCacheExpirationSeconds = v.GetInt("dag.block_cache_expiration_seconds")
	}
	return config
}

// startMetrics registers collectors on a fresh registry and serves it when
// metrics.port is set.
func startMetrics(v *viper.Viper) *metrics.Metrics {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics("dagcommit", reg)
	port := v.GetInt("metrics.port")
	if port > 0 {
		goroutine.New(func() {
			if err := metrics.Serve(port, reg); err != nil {
				logrus.WithError(err).Error("metrics server stopped")
			}
		})
	}
	return m
}
