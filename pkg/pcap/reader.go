// Package pcap turns captured packets into keyed observation events.
package pcap

import (
	"fmt"

	"StreamRank/internal/model"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

// Reader reads packets from a capture file or a live interface and emits
// one Event per packet, keyed by the configured packet field.
type Reader struct {
	handle *pcap.Handle
	keyBy  string
}

// NewFileReader creates a reader replaying the given pcap file.
func NewFileReader(filePath, keyBy string) (*Reader, error) {
	if err := validateKeyBy(keyBy); err != nil {
		return nil, err
	}
	handle, err := pcap.OpenOffline(filePath)
	if err != nil {
		return nil, err
	}
	return &Reader{handle: handle, keyBy: keyBy}, nil
}

// NewLiveReader creates a reader capturing from the given interface.
func NewLiveReader(device, keyBy string) (*Reader, error) {
	if err := validateKeyBy(keyBy); err != nil {
		return nil, err
	}
	handle, err := pcap.OpenLive(device, 65535, true, pcap.BlockForever)
	if err != nil {
		return nil, err
	}
	return &Reader{handle: handle, keyBy: keyBy}, nil
}

// Close closes the pcap handle.
func (r *Reader) Close() {
	r.handle.Close()
}

// ReadEvents reads packets until the source is exhausted and sends one
// keyed Event per parseable packet to the provided channel. Packets
// without a network layer are skipped.
func (r *Reader) ReadEvents(out chan<- *model.Event) {
	packetSource := gopacket.NewPacketSource(r.handle, r.handle.LinkType())
	for packet := range packetSource.Packets() {
		key, ok := r.key(packet)
		if !ok {
			continue
		}
		out <- &model.Event{
			Timestamp: packet.Metadata().Timestamp,
			Key:       key,
			Weight:    1,
		}
	}
}

func (r *Reader) key(packet gopacket.Packet) (string, bool) {
	netLayer := packet.NetworkLayer()
	if netLayer == nil {
		return "", false
	}
	netFlow := netLayer.NetworkFlow()
	switch r.keyBy {
	case "src_ip":
		return netFlow.Src().String(), true
	case "dst_ip":
		return netFlow.Dst().String(), true
	case "flow":
		if transport := packet.TransportLayer(); transport != nil {
			tf := transport.TransportFlow()
			return fmt.Sprintf("%s:%s->%s:%s", netFlow.Src(), tf.Src(), netFlow.Dst(), tf.Dst()), true
		}
		return fmt.Sprintf("%s->%s", netFlow.Src(), netFlow.Dst()), true
	}
	return "", false
}

func validateKeyBy(keyBy string) error {
	switch keyBy {
	case "src_ip", "dst_ip", "flow":
		return nil
	}
	return fmt.Errorf("unknown key_by '%s': want src_ip, dst_ip or flow", keyBy)
}
