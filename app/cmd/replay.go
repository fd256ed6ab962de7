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

	"github.com/annchain/dagcommit/committee"
	"github.com/annchain/dagcommit/common/utilfuncs"
	"github.com/annchain/dagcommit/consensus"
	"github.com/annchain/dagcommit/core"
	"github.com/annchain/dagcommit/metrics"
	"github.com/annchain/dagcommit/ogdb"
	"github.com/annchain/dagcommit/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Build a fully connected DAG and linearize its leaders into the store",
	Long: `replay builds rounds 1..replay.rounds of a fully connected DAG for the
configured committee, elects a leader per round and commits them. A new swap
table built from replay.scores is installed every
consensus.commits_per_schedule commits. Running it again on the same datadir
continues after the last persisted commit.`,
	Run: replay,
}

func init() {
	replayCmd.Flags().Uint32P("rounds", "r", 100, "Last round to build and commit")
	_ = viper.BindPFlag("replay.rounds", replayCmd.Flags().Lookup("rounds"))
}

type replayResult struct {
	LastCommitIndex types.CommitIndex
	SubDags         int
	Blocks          int
	SwapTables      int
}

func replay(cmd *cobra.Command, args []string) {
	readConfig()
	initLogger()

	store := openStore(viper.GetViper())
	defer store.Close()

	result, err := runReplay(viper.GetViper(), store, startMetrics(viper.GetViper()))
	utilfuncs.PanicIfError(err, "replay")
	logrus.WithFields(logrus.Fields{
		"lastCommitIndex": result.LastCommitIndex,
		"subdags":         result.SubDags,
		"blocks":          result.Blocks,
		"swapTables":      result.SwapTables,
	}).Info("replay finished")
}

// replayScores reads one reputation score per authority. Missing scores
// default to zero for everyone.
func replayScores(v *viper.Viper, c *committee.Committee) ([]uint64, error) {
	var scores []uint64
	if err := v.UnmarshalKey("replay.scores", &scores); err != nil {
		return nil, fmt.Errorf("read replay.scores: %v", err)
	}
	if len(scores) == 0 {
		return make([]uint64, c.Size()), nil
	}
	if len(scores) != c.Size() {
		return nil, fmt.Errorf("replay.scores has %d entries for a committee of %d", len(scores), c.Size())
	}
	return scores, nil
}

func runReplay(v *viper.Viper, store ogdb.Store, m *metrics.Metrics) (replayResult, error) {
	var result replayResult

	c, err := committee.Load(v)
	if err != nil {
		return result, err
	}
	config, err := consensus.LoadConfig(v)
	if err != nil {
		return result, err
	}
	scores, err := replayScores(v, c)
	if err != nil {
		return result, err
	}
	dag, err := core.NewDagState(c, store, dagStateConfig(v))
	if err != nil {
		return result, err
	}

	schedule := consensus.NewLeaderSchedule(c, nil, config)
	schedule.Metrics = m
	linearizer := consensus.NewLinearizer(dag)
	linearizer.Metrics = m
	builder := core.NewDagBuilder(c, schedule)

	rounds := types.Round(v.GetUint32("replay.rounds"))
	builder.PersistLayers(dag, 1, rounds)

	dag.RLock()
	next := types.Round(1)
	if last := dag.LastCommit(); last != nil {
		next = last.Leader.Round + 1
	}
	result.LastCommitIndex = dag.LastCommitIndex()
	dag.RUnlock()

	logrus.WithFields(logrus.Fields{
		"committee": c,
		"from":      next,
		"to":        rounds,
		"election":  config.LeaderElection,
	}).Info("replaying")

	for next <= rounds {
		end := next + types.Round(schedule.CommitsUntilLeaderScheduleUpdate(result.LastCommitIndex)) - 1
		if end > rounds {
			end = rounds
		}
		subDags := linearizer.HandleCommit(builder.LeaderBlocks(next, end))
		for _, subDag := range subDags {
			result.Blocks += len(subDag.Blocks)
		}
		result.SubDags += len(subDags)
		result.LastCommitIndex = subDags[len(subDags)-1].CommitIndex
		next = end + 1

		if uint32(result.LastCommitIndex)%config.CommitsPerSchedule == 0 {
			window := types.NewCommitRange(result.LastCommitIndex-types.CommitIndex(config.CommitsPerSchedule)+1, result.LastCommitIndex)
			table := schedule.UpdateFromScores(types.NewReputationScores(window, scores))
			logrus.WithField("table", table).Info("leader swap table installed")
			result.SwapTables++
		}
	}
	return result, nil
}
