package storage

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// TreeInfoMUS is the MUS serializer for TreeInfo records.
// Fields are encoded in declaration order.
var TreeInfoMUS = treeInfoMUS{}

type treeInfoMUS struct{}

func (s treeInfoMUS) Marshal(v TreeInfo, bs []byte) (n int) {
	n = ord.String.Marshal(v.DocumentName, bs)
	n += varint.Int.Marshal(v.Nodes, bs[n:])
	return n + raw.TimeUnixNanoUTC.Marshal(v.SavedAt, bs[n:])
}

func (s treeInfoMUS) Unmarshal(bs []byte) (v TreeInfo, n int, err error) {
	v.DocumentName, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Nodes, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.SavedAt, n1, err = raw.TimeUnixNanoUTC.Unmarshal(bs[n:])
	n += n1
	return
}

func (s treeInfoMUS) Size(v TreeInfo) (size int) {
	size = ord.String.Size(v.DocumentName)
	size += varint.Int.Size(v.Nodes)
	return size + raw.TimeUnixNanoUTC.Size(v.SavedAt)
}

func (s treeInfoMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.TimeUnixNanoUTC.Skip(bs[n:])
	n += n1
	return
}
