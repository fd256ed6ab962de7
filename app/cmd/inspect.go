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
	"io"
	"os"

	"github.com/annchain/dagcommit/common/utilfuncs"
	"github.com/annchain/dagcommit/ogdb"
	"github.com/annchain/dagcommit/types"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the persisted commit chain and verify its links",
	Run:   inspect,
}

func init() {
	inspectCmd.Flags().Uint32("from", 1, "First commit index to print")
	inspectCmd.Flags().BoolP("verbose", "V", false, "Dump every commit field")
	_ = viper.BindPFlag("inspect.from", inspectCmd.Flags().Lookup("from"))
	_ = viper.BindPFlag("inspect.verbose", inspectCmd.Flags().Lookup("verbose"))
}

func inspect(cmd *cobra.Command, args []string) {
	readConfig()
	initLogger()

	store := openStore(viper.GetViper())
	defer store.Close()

	n, err := inspectCommits(store, types.CommitIndex(viper.GetUint32("inspect.from")), os.Stdout, viper.GetBool("inspect.verbose"))
	utilfuncs.PanicIfError(err, "inspect")
	fmt.Printf("%d commits verified\n", n)
}

// inspectCommits prints commits from index from on and checks that each one
// chains to the one before it with a timestamp that does not go back.
func inspectCommits(store ogdb.Store, from types.CommitIndex, w io.Writer, verbose bool) (int, error) {
	commits, err := store.ScanCommits(from)
	if err != nil {
		return 0, err
	}
	var prev *types.TrustedCommit
	for i, commit := range commits {
		switch {
		case prev == nil && commit.Index == 1 && commit.PreviousDigest != types.CommitDigestMin:
			return i, fmt.Errorf("commit 1 has previous digest %s", commit.PreviousDigest)
		case prev != nil && commit.Index != prev.Index+1:
			return i, fmt.Errorf("commit %d follows commit %d", commit.Index, prev.Index)
		case prev != nil && commit.PreviousDigest != prev.Digest():
			return i, fmt.Errorf("commit %d does not chain to commit %d: %s != %s",
				commit.Index, prev.Index, commit.PreviousDigest, prev.Digest())
		case prev != nil && commit.TimestampMs < prev.TimestampMs:
			return i, fmt.Errorf("commit %d timestamp %d goes back from %d", commit.Index, commit.TimestampMs, prev.TimestampMs)
		}
		fmt.Fprintf(w, "%s digest=%s\n", &commit.Commit, commit.Digest())
		if verbose {
			spew.Fdump(w, commit.Commit)
		}
		prev = commit
	}
	return len(commits), nil
}
