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
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/annchain/dagcommit/common/utilfuncs"
	rotatelogs "github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

type LogConfig struct {
	Dir        string
	Stdout     bool
	File       bool
	Level      string
	LineNumber bool
	// ByLevel adds one rotating file per level next to the main file.
	ByLevel bool
}

// RotateLog writes to abspath<time>.log, rotated daily and kept for a week,
// with abspath.log linking to the current file.
func RotateLog(abspath string) *rotatelogs.RotateLogs {
	logFile, err := rotatelogs.New(
		abspath+"%Y%m%d%H%M.log",
		rotatelogs.WithLinkName(abspath+".log"),
		rotatelogs.WithMaxAge(24*time.Hour*7),
		rotatelogs.WithRotationTime(time.Hour*24),
	)
	utilfuncs.PanicIfError(err, "err init log")
	return logFile
}

// ParseLevel falls back to info on unknown names.
func ParseLevel(level string) logrus.Level {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		fmt.Println("Unknown level: ", level, "Set to INFO")
		return logrus.InfoLevel
	}
	return l
}

func NewFormatter(colors bool) *logrus.TextFormatter {
	formatter := new(logrus.TextFormatter)
	formatter.ForceColors = colors
	formatter.TimestampFormat = "2006-01-02 15:04:05.000000"
	formatter.FullTimestamp = true
	return formatter
}

// InitLogger configures the standard logger. Every component logs through
// it unless given its own.
func InitLogger(config LogConfig) *logrus.Logger {
	logger := logrus.StandardLogger()
	var writers []io.Writer

	if config.File {
		folderPath, err := filepath.Abs(config.Dir)
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing log path: %s", config.Dir))

		abspath, err := filepath.Abs(path.Join(config.Dir, "run"))
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing log file path: %s", config.Dir))

		err = os.MkdirAll(folderPath, os.ModePerm)
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on creating log dir: %s", folderPath))
		writers = append(writers, RotateLog(abspath))
		fmt.Println("Will be logged to " + abspath + ".log")
	}
	if config.Stdout || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}
	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetLevel(ParseLevel(config.Level))

	formatter := NewFormatter(config.Stdout)
	logger.SetFormatter(formatter)
	logger.SetReportCaller(config.LineNumber)

	if config.ByLevel && config.File {
		writerMap := lfshook.WriterMap{}
		for _, level := range logrus.AllLevels {
			levelLog, _ := filepath.Abs(path.Join(config.Dir, level.String()))
			writerMap[level] = RotateLog(levelLog)
		}
		logger.AddHook(lfshook.NewHook(writerMap, formatter))
	}
	logger.Debug("Logger initialized.")
	return logger
}
