package sgfile

import "encoding/binary"

// SyncWord marks the start of a valid SG file header.
const SyncWord uint32 = 0x53474746 // "SGGF"

// FileVersion is the on-disk format version written by this package.
const FileVersion uint32 = 1

// PacketFormatVDIF identifies the frame payload format.
const PacketFormatVDIF uint32 = 1

// FileHeaderSize is the encoded size in bytes of FileHeader.
const FileHeaderSize = 20

// FileHeader is the first record in an SG file.
type FileHeader struct {
	SyncWord     uint32
	FileVersion  uint32
	PacketFormat uint32
	PacketSize   uint32
	BlockSize    uint32
}

// Encode writes h in little-endian form to buf, which must be at least
// FileHeaderSize bytes.
func (h FileHeader) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.SyncWord)
	binary.LittleEndian.PutUint32(buf[4:8], h.FileVersion)
	binary.LittleEndian.PutUint32(buf[8:12], h.PacketFormat)
	binary.LittleEndian.PutUint32(buf[12:16], h.PacketSize)
	binary.LittleEndian.PutUint32(buf[16:20], h.BlockSize)
}

// DecodeFileHeader parses a FileHeader from buf.
func DecodeFileHeader(buf []byte) (FileHeader, bool) {
	if len(buf) < FileHeaderSize {
		return FileHeader{}, false
	}
	h := FileHeader{
		SyncWord:     binary.LittleEndian.Uint32(buf[0:4]),
		FileVersion:  binary.LittleEndian.Uint32(buf[4:8]),
		PacketFormat: binary.LittleEndian.Uint32(buf[8:12]),
		PacketSize:   binary.LittleEndian.Uint32(buf[12:16]),
		BlockSize:    binary.LittleEndian.Uint32(buf[16:20]),
	}
	return h, h.SyncWord == SyncWord
}

// BlockHeaderSize is the encoded size in bytes of BlockHeader.
const BlockHeaderSize = 12

// BlockHeader prefixes every write-block.
type BlockHeader struct {
	BlockNum uint64
	WBSize   uint32
}

// Encode writes h in little-endian form to buf, which must be at least
// BlockHeaderSize bytes.
func (h BlockHeader) Encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], h.BlockNum)
	binary.LittleEndian.PutUint32(buf[8:12], h.WBSize)
}

// DecodeBlockHeader parses a BlockHeader from buf.
func DecodeBlockHeader(buf []byte) BlockHeader {
	return BlockHeader{
		BlockNum: binary.LittleEndian.Uint64(buf[0:8]),
		WBSize:   binary.LittleEndian.Uint32(buf[8:12]),
	}
}
