package capture

import (
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket/pcapgo"
)

// Reader reads raw frames from a pcap file and extracts their payloads.
type Reader struct {
	file *os.File
	r    *pcapgo.Reader
}

// NewReader opens a pcap file for sequential payload extraction.
func NewReader(filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot open pcap file '%s': %w", filePath, err)
	}
	r, err := pcapgo.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("cannot read pcap file '%s': %w", filePath, err)
	}
	return &Reader{file: file, r: r}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() {
	r.file.Close()
}

// ForEachPayload invokes fn for every frame whose extracted payload is
// non-empty. Frames with an unsupported or malformed protocol chain are
// skipped silently. A non-nil error from fn aborts the iteration.
func (r *Reader) ForEachPayload(fn func(payload []byte) error) error {
	for {
		data, ci, err := r.r.ReadPacketData()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read packet: %w", err)
		}
		payload := ExtractPayload(Frame{
			Data:           data,
			CaptureLength:  ci.CaptureLength,
			OriginalLength: ci.Length,
		})
		if len(payload) == 0 {
			continue
		}
		if err := fn(payload); err != nil {
			return err
		}
	}
}
