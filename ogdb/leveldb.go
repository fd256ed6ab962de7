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
package ogdb

import (
	"encoding/binary"
	"fmt"

	"github.com/annchain/dagcommit/types"
	"github.com/golang/snappy"
	log "github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.uber.org/atomic"
)

const (
	blockPrefix  byte = 'b'
	commitPrefix byte = 'c'
)

type LevelDBConfig struct {
	Path string
	// in MiB
	CacheSize int
	Handles   int
}

// LevelDBStore is the durable Store. Blocks are keyed by
// (author, round, digest) so a per-author scan is a single range read;
// commits are keyed by big-endian index so the last key is the last commit.
type LevelDBStore struct {
	config LevelDBConfig
	db     *leveldb.DB
	closed *atomic.Bool
}

func NewLevelDBStore(config LevelDBConfig) (*LevelDBStore, error) {
	if config.CacheSize < 16 {
		config.CacheSize = 16
	}
	if config.Handles < 16 {
		config.Handles = 16
	}
	db, err := leveldb.OpenFile(config.Path, &opt.Options{
		OpenFilesCacheCapacity: config.Handles,
		BlockCacheCapacity:     config.CacheSize / 2 * opt.MiB,
		WriteBuffer:            config.CacheSize / 4 * opt.MiB,
		// block values are snappy encoded before they reach leveldb
		Compression: opt.NoCompression,
	})
	if err != nil {
		return nil, fmt.Errorf("open leveldb at %s: %v", config.Path, err)
	}
	log.WithField("path", config.Path).WithField("cache", config.CacheSize).Info("leveldb store opened")
	return &LevelDBStore{
		config: config,
		db:     db,
		closed: atomic.NewBool(false),
	}, nil
}

func blockKeyPrefix(author types.AuthorityIndex) []byte {
	key := make([]byte, 5)
	key[0] = blockPrefix
	binary.BigEndian.PutUint32(key[1:], uint32(author))
	return key
}

func blockKey(ref types.BlockRef) []byte {
	key := make([]byte, 0, 9+types.DigestLength)
	key = append(key, blockKeyPrefix(ref.Author)...)
	key = append(key, 0, 0, 0, 0)
	binary.BigEndian.PutUint32(key[5:9], uint32(ref.Round))
	return append(key, ref.Digest[:]...)
}

func commitKey(index types.CommitIndex) []byte {
	key := make([]byte, 5)
	key[0] = commitPrefix
	binary.BigEndian.PutUint32(key[1:], uint32(index))
	return key
}

func (s *LevelDBStore) Write(blocks []*types.VerifiedBlock, commits []*types.TrustedCommit) error {
	if s.closed.Load() {
		return ErrClosed
	}
	batch := new(leveldb.Batch)
	for _, b := range blocks {
		batch.Put(blockKey(b.Reference()), snappy.Encode(nil, b.Serialized()))
	}
	for _, c := range commits {
		batch.Put(commitKey(c.Index), c.Serialized())
	}
	if err := s.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("write %d blocks and %d commits: %v", len(blocks), len(commits), err)
	}
	log.WithField("blocks", len(blocks)).WithField("commits", len(commits)).Trace("leveldb batch written")
	return nil
}

func decodeBlock(value []byte) (*types.VerifiedBlock, error) {
	raw, err := snappy.Decode(nil, value)
	if err != nil {
		return nil, fmt.Errorf("decompress block: %v", err)
	}
	return types.ParseVerifiedBlock(raw)
}

func (s *LevelDBStore) ReadBlocks(refs []types.BlockRef) ([]*types.VerifiedBlock, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	result := make([]*types.VerifiedBlock, len(refs))
	for i, ref := range refs {
		value, err := s.db.Get(blockKey(ref), nil)
		if err == leveldb.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read block %s: %v", ref, err)
		}
		block, err := decodeBlock(value)
		if err != nil {
			return nil, err
		}
		if block.Reference() != ref {
			return nil, fmt.Errorf("block stored under %s has reference %s", ref, block.Reference())
		}
		result[i] = block
	}
	return result, nil
}

func (s *LevelDBStore) ContainsBlocks(refs []types.BlockRef) ([]bool, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	result := make([]bool, len(refs))
	for i, ref := range refs {
		has, err := s.db.Has(blockKey(ref), nil)
		if err != nil {
			return nil, fmt.Errorf("check block %s: %v", ref, err)
		}
		result[i] = has
	}
	return result, nil
}

func (s *LevelDBStore) ScanBlocksByAuthor(author types.AuthorityIndex, startRound types.Round) ([]*types.VerifiedBlock, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	start := blockKey(types.BlockRef{Author: author, Round: startRound})
	limit := util.BytesPrefix(blockKeyPrefix(author)).Limit
	iter := s.db.NewIterator(&util.Range{Start: start, Limit: limit}, nil)
	defer iter.Release()

	var result []*types.VerifiedBlock
	for iter.Next() {
		block, err := decodeBlock(iter.Value())
		if err != nil {
			return nil, err
		}
		result = append(result, block)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("scan blocks of %d: %v", author, err)
	}
	return result, nil
}

func (s *LevelDBStore) ReadLastCommit() (*types.TrustedCommit, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	iter := s.db.NewIterator(util.BytesPrefix([]byte{commitPrefix}), nil)
	defer iter.Release()
	if !iter.Last() {
		return nil, iter.Error()
	}
	return types.ParseTrustedCommit(iter.Value())
}

func (s *LevelDBStore) ScanCommits(start types.CommitIndex) ([]*types.TrustedCommit, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	limit := util.BytesPrefix([]byte{commitPrefix}).Limit
	iter := s.db.NewIterator(&util.Range{Start: commitKey(start), Limit: limit}, nil)
	defer iter.Release()

	var result []*types.TrustedCommit
	for iter.Next() {
		commit, err := types.ParseTrustedCommit(iter.Value())
		if err != nil {
			return nil, err
		}
		result = append(result, commit)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("scan commits from %d: %v", start, err)
	}
	return result, nil
}

func (s *LevelDBStore) Close() error {
	if !s.closed.CAS(false, true) {
		return nil
	}
	log.WithField("path", s.config.Path).Info("leveldb store closed")
	return s.db.Close()
}
