package types

import (
	"github.com/tinylib/msgp/msgp"
)

// MarshalMsg implements msgp.Marshaler
func (z *BlockRef) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	// array header, size 3
	o = append(o, 0x93)
	o = msgp.AppendUint32(o, uint32(z.Author))
	o = msgp.AppendUint32(o, uint32(z.Round))
	o = msgp.AppendBytes(o, (z.Digest)[:])
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *BlockRef) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if zb0001 != 3 {
		err = msgp.ArrayError{Wanted: 3, Got: zb0001}
		return
	}
	{
		var zb0002 uint32
		zb0002, bts, err = msgp.ReadUint32Bytes(bts)
		if err != nil {
			return
		}
		z.Author = AuthorityIndex(zb0002)
	}
	{
		var zb0003 uint32
		zb0003, bts, err = msgp.ReadUint32Bytes(bts)
		if err != nil {
			return
		}
		z.Round = Round(zb0003)
	}
	bts, err = msgp.ReadExactBytes(bts, (z.Digest)[:])
	if err != nil {
		return
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *BlockRef) Msgsize() (s int) {
	s = 1 + msgp.Uint32Size + msgp.Uint32Size + msgp.BytesPrefixSize + (DigestLength * (msgp.ByteSize))
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *Block) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	// array header, size 6
	o = append(o, 0x96)
	o = msgp.AppendUint64(o, uint64(z.Epoch))
	o = msgp.AppendUint32(o, uint32(z.Round))
	o = msgp.AppendUint32(o, uint32(z.Author))
	o = msgp.AppendUint64(o, z.TimestampMs)
	o = msgp.AppendArrayHeader(o, uint32(len(z.Ancestors)))
	for za0001 := range z.Ancestors {
		o, err = z.Ancestors[za0001].MarshalMsg(o)
		if err != nil {
			return
		}
	}
	o = msgp.AppendBytes(o, z.Payload)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *Block) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if zb0001 != 6 {
		err = msgp.ArrayError{Wanted: 6, Got: zb0001}
		return
	}
	{
		var zb0002 uint64
		zb0002, bts, err = msgp.ReadUint64Bytes(bts)
		if err != nil {
			return
		}
		z.Epoch = Epoch(zb0002)
	}
	{
		var zb0003 uint32
		zb0003, bts, err = msgp.ReadUint32Bytes(bts)
		if err != nil {
			return
		}
		z.Round = Round(zb0003)
	}
	{
		var zb0004 uint32
		zb0004, bts, err = msgp.ReadUint32Bytes(bts)
		if err != nil {
			return
		}
		z.Author = AuthorityIndex(zb0004)
	}
	z.TimestampMs, bts, err = msgp.ReadUint64Bytes(bts)
	if err != nil {
		return
	}
	var zb0005 uint32
	zb0005, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if cap(z.Ancestors) >= int(zb0005) {
		z.Ancestors = (z.Ancestors)[:zb0005]
	} else {
		z.Ancestors = make([]BlockRef, zb0005)
	}
	for za0001 := range z.Ancestors {
		bts, err = z.Ancestors[za0001].UnmarshalMsg(bts)
		if err != nil {
			return
		}
	}
	z.Payload, bts, err = msgp.ReadBytesBytes(bts, z.Payload)
	if err != nil {
		return
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *Block) Msgsize() (s int) {
	s = 1 + msgp.Uint64Size + msgp.Uint32Size + msgp.Uint32Size + msgp.Uint64Size + msgp.ArrayHeaderSize
	for za0001 := range z.Ancestors {
		s += z.Ancestors[za0001].Msgsize()
	}
	s += msgp.BytesPrefixSize + len(z.Payload)
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *Commit) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	// array header, size 5
	o = append(o, 0x95)
	o = msgp.AppendUint32(o, uint32(z.Index))
	o = msgp.AppendBytes(o, (z.PreviousDigest)[:])
	o = msgp.AppendUint64(o, z.TimestampMs)
	o, err = z.Leader.MarshalMsg(o)
	if err != nil {
		return
	}
	o = msgp.AppendArrayHeader(o, uint32(len(z.Blocks)))
	for za0001 := range z.Blocks {
		o, err = z.Blocks[za0001].MarshalMsg(o)
		if err != nil {
			return
		}
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *Commit) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if zb0001 != 5 {
		err = msgp.ArrayError{Wanted: 5, Got: zb0001}
		return
	}
	{
		var zb0002 uint32
		zb0002, bts, err = msgp.ReadUint32Bytes(bts)
		if err != nil {
			return
		}
		z.Index = CommitIndex(zb0002)
	}
	bts, err = msgp.ReadExactBytes(bts, (z.PreviousDigest)[:])
	if err != nil {
		return
	}
	z.TimestampMs, bts, err = msgp.ReadUint64Bytes(bts)
	if err != nil {
		return
	}
	bts, err = z.Leader.UnmarshalMsg(bts)
	if err != nil {
		return
	}
	var zb0003 uint32
	zb0003, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if cap(z.Blocks) >= int(zb0003) {
		z.Blocks = (z.Blocks)[:zb0003]
	} else {
		z.Blocks = make([]BlockRef, zb0003)
	}
	for za0001 := range z.Blocks {
		bts, err = z.Blocks[za0001].UnmarshalMsg(bts)
		if err != nil {
			return
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *Commit) Msgsize() (s int) {
	s = 1 + msgp.Uint32Size + msgp.BytesPrefixSize + (DigestLength * (msgp.ByteSize)) + msgp.Uint64Size + z.Leader.Msgsize() + msgp.ArrayHeaderSize
	for za0001 := range z.Blocks {
		s += z.Blocks[za0001].Msgsize()
	}
	return
}
