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
package mylog

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.TraceLevel, ParseLevel("trace"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("chatty"))
}

func TestInitLoggerToFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "mylog")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	defer logrus.SetOutput(os.Stderr)

	logger := InitLogger(LogConfig{Dir: dir, File: true, Level: "debug", ByLevel: true})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	logger.Info("hello")

	_, err = os.Stat(filepath.Join(dir, "run.log"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "info.log"))
	assert.NoError(t, err)

	logger.ReplaceHooks(make(logrus.LevelHooks))
	logger.SetLevel(logrus.InfoLevel)
}
