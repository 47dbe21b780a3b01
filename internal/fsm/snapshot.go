package fsm

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/hashicorp/raft"

	"replikv/internal/engine"
)

// fsmSnapshot implements raft.FSMSnapshot by streaming a JSON header
// (the replicated endpoint map) followed by the engine's own backup
// stream. Grounded on cuemby-warren/poc/raft/fsm.go's KeyValueSnapshot,
// generalized from an in-memory map copy to Badger's native backup
// format since this engine is too large to hold a full copy in memory.
type fsmSnapshot struct {
	eng       engine.Engine
	endpoints map[int32]string
}

func (f *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		header, err := json.Marshal(snapshotHeader{Endpoints: f.endpoints})
		if err != nil {
			return err
		}

		var lenPrefix [4]byte
		binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(header)))
		if _, err := sink.Write(lenPrefix[:]); err != nil {
			return err
		}
		if _, err := sink.Write(header); err != nil {
			return err
		}

		return f.eng.Backup(nil, sink)
	}()

	if err != nil {
		sink.Cancel()
		return err
	}
	return sink.Close()
}

func (f *fsmSnapshot) Release() {}

// readSnapshotHeader parses the length-prefixed JSON header written by
// Persist and returns the remaining reader positioned at the engine
// backup stream.
func readSnapshotHeader(r io.Reader) (snapshotHeader, io.Reader, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return snapshotHeader{}, nil, err
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])

	headerBytes := make([]byte, n)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return snapshotHeader{}, nil, err
	}

	var header snapshotHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return snapshotHeader{}, nil, err
	}
	if header.Endpoints == nil {
		header.Endpoints = make(map[int32]string)
	}

	return header, r, nil
}
