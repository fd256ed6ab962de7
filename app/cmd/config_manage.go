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
	"fmt"
	"os"
	"path/filepath"

	"github.com/annchain/dagcommit/common/io"
	"github.com/annchain/dagcommit/common/utilfuncs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// readConfig merges --config, or {datadir}/config.toml when --config is not
// given. Environment variables prefixed with DAGCOMMIT_ override both.
func readConfig() {
	configPath := viper.GetString("config")
	if configPath == "" {
		configPath = io.FixPrefixPath(viper.GetString("datadir"), "config.toml")
		if !io.FileExists(configPath) {
			logrus.WithField("path", configPath).Debug("no config file, using defaults")
			return
		}
	}
	mergeLocalConfig(viper.GetViper(), configPath)
	logrus.WithField("settings", viper.AllSettings()).Debug("config loaded")
}

func mergeLocalConfig(v *viper.Viper, configPath string) {
	absPath, err := filepath.Abs(configPath)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing config file path: %s", absPath))

	file, err := os.Open(absPath)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on opening config file: %s", absPath))
	defer file.Close()

	v.SetConfigType("toml")
	err = v.MergeConfig(file)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on reading config file: %s", absPath))
}
