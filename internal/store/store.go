// Package store persists sub-chunk block and light arrays plus the player
// state in a bolt database. Sub-chunk payloads are zstd-compressed; the
// flat arrays compress extremely well.
package store

import (
	"bytes"
	"encoding/binary"
	"log"

	"github.com/boltdb/bolt"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"voxelworld/internal/chunk"
	"voxelworld/internal/coord"
)

var (
	subBucket    = []byte("subchunks")
	playerBucket = []byte("player")
)

// PlayerState is the camera/body snapshot written on exit and restored on
// start. Fixed-size so binary.Write handles it directly.
type PlayerState struct {
	X, Y, Z    float64
	Rx, Ry     float64
	FlightMode bool
}

// DefaultPlayerState spawns well above any terrain so the body settles
// down onto the surface.
func DefaultPlayerState() PlayerState {
	return PlayerState{Y: 120}
}

type Store struct {
	db  *bolt.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0666, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(subBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(playerBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create buckets")
	}
	db.NoSync = true

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, enc: enc, dec: dec}, nil
}

// PutSubChunk persists one sub-chunk's block and light arrays.
func (s *Store) PutSubChunk(c coord.Chunk, subY int, sub *chunk.SubChunk) error {
	blob := s.enc.EncodeAll(encodeSubChunk(sub), nil)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(subBucket).Put(subKey(c, subY), blob)
	})
}

// GetSubChunk loads one sub-chunk. A missing key returns (nil, nil):
// absence means "generate it", not an error.
func (s *Store) GetSubChunk(c coord.Chunk, subY int) (*chunk.SubChunk, error) {
	var blob []byte
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(subBucket).Get(subKey(c, subY)); v != nil {
			blob = append(blob, v...)
		}
		return nil
	})
	if blob == nil {
		return nil, nil
	}
	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress sub-chunk (%d,%d)/%d", c.X, c.Z, subY)
	}
	return decodeSubChunk(raw)
}

// RangeColumn visits every stored sub-chunk of one column in subY order.
func (s *Store) RangeColumn(c coord.Chunk, f func(subY int, sub *chunk.SubChunk) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		prefix := columnPrefix(c)
		cur := tx.Bucket(subBucket).Cursor()
		for k, v := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
			subY := decodeSubY(k)
			raw, err := s.dec.DecodeAll(v, nil)
			if err != nil {
				return errors.Wrapf(err, "decompress sub-chunk (%d,%d)/%d", c.X, c.Z, subY)
			}
			sub, err := decodeSubChunk(raw)
			if err != nil {
				return err
			}
			if err := f(subY, sub); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdatePlayerState persists the camera/body snapshot.
func (s *Store) UpdatePlayerState(state PlayerState) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		buf := new(bytes.Buffer)
		binary.Write(buf, binary.LittleEndian, &state)
		return tx.Bucket(playerBucket).Put(playerBucket, buf.Bytes())
	})
}

// GetPlayerState returns the saved snapshot, or the default spawn state
// when nothing was saved yet.
func (s *Store) GetPlayerState() PlayerState {
	state := DefaultPlayerState()
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(playerBucket).Get(playerBucket); v != nil {
			binary.Read(bytes.NewBuffer(v), binary.LittleEndian, &state)
		}
		return nil
	})
	return state
}

func (s *Store) Close() {
	s.db.Sync()
	s.db.Close()
	s.enc.Close()
	s.dec.Close()
}

// subKey is chunkX, chunkZ little-endian int64 followed by one subY byte,
// so a cursor over a column prefix walks sub-chunks bottom to top.
func subKey(c coord.Chunk, subY int) []byte {
	if subY < 0 || subY >= coord.SubChunkCount {
		log.Panicf("store: sub index %d out of range", subY)
	}
	key := make([]byte, 17)
	binary.LittleEndian.PutUint64(key[0:], uint64(c.X))
	binary.LittleEndian.PutUint64(key[8:], uint64(c.Z))
	key[16] = byte(subY)
	return key
}

func columnPrefix(c coord.Chunk) []byte {
	key := make([]byte, 16)
	binary.LittleEndian.PutUint64(key[0:], uint64(c.X))
	binary.LittleEndian.PutUint64(key[8:], uint64(c.Z))
	return key
}

func decodeSubY(key []byte) int {
	if len(key) != 17 {
		log.Panicf("store: bad sub-chunk key length %d", len(key))
	}
	return int(key[16])
}

// encodeSubChunk lays out the block ids little-endian followed by the raw
// light bytes.
func encodeSubChunk(sub *chunk.SubChunk) []byte {
	raw := make([]byte, chunk.BlockCount*2+chunk.BlockCount)
	for i, id := range sub.Blocks() {
		binary.LittleEndian.PutUint16(raw[i*2:], id)
	}
	copy(raw[chunk.BlockCount*2:], sub.Light())
	return raw
}

func decodeSubChunk(raw []byte) (*chunk.SubChunk, error) {
	if len(raw) != chunk.BlockCount*3 {
		return nil, errors.Errorf("bad sub-chunk payload length %d", len(raw))
	}
	blocks := make([]uint16, chunk.BlockCount)
	for i := range blocks {
		blocks[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}
	light := make([]uint8, chunk.BlockCount)
	copy(light, raw[chunk.BlockCount*2:])
	return chunk.FromArrays(blocks, light), nil
}
