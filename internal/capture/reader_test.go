package capture

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// writePcap writes raw frames into a pcap file under dir and returns its path.
func writePcap(t *testing.T, dir, name string, frames ...[]byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create pcap file: %v", err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("Failed to write pcap header: %v", err)
	}
	ts := time.Now()
	for _, data := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     ts,
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatalf("Failed to write packet: %v", err)
		}
	}
	return path
}

func TestReader_ForEachPayload(t *testing.T) {
	payloads := [][]byte{
		[]byte("first payload"),
		[]byte("second payload"),
	}
	// The middle frame has an unsupported network layer and must be skipped.
	path := writePcap(t, t.TempDir(), "test.pcap",
		frame(ethHeader(layers.EthernetTypeIPv4), ipv4Header(layers.IPProtocolTCP), tcpHeader(5), payloads[0]).Data,
		frame(ethHeader(layers.EthernetTypeARP), []byte("not a payload")).Data,
		frame(ethHeader(layers.EthernetTypeIPv4), ipv4Header(layers.IPProtocolUDP), make([]byte, udpHeaderLen), payloads[1]).Data,
	)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("Failed to create reader: %v", err)
	}
	defer reader.Close()

	var got [][]byte
	err = reader.ForEachPayload(func(payload []byte) error {
		got = append(got, append([]byte(nil), payload...))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachPayload failed: %v", err)
	}

	if len(got) != len(payloads) {
		t.Fatalf("Expected %d payloads, got %d", len(payloads), len(got))
	}
	for i := range payloads {
		if !bytes.Equal(got[i], payloads[i]) {
			t.Errorf("Payload %d mismatch: got %q, want %q", i, got[i], payloads[i])
		}
	}
}

func TestReader_MissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.pcap")); err == nil {
		t.Fatal("Expected an error for a missing capture file")
	}
}
