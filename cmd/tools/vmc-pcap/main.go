// Command vmc-pcap summarises a packet capture of VMC traffic: message
// counts per OSC address, frame count and effective frame rate. Useful
// for verifying what a receiver actually saw on the wire.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var (
	pcapFile = flag.String("pcap", "", "Path to the pcap file")
	udpPort  = flag.Int("port", 39539, "VMC receiver UDP port to filter on")
)

// blendApplyAddr terminates each frame's blendshape batch, so counting
// it counts frames.
const blendApplyAddr = "/VMC/Ext/Blend/Apply"

func main() {
	flag.Parse()
	if *pcapFile == "" {
		log.Fatal("-pcap is required")
	}

	f, err := os.Open(*pcapFile)
	if err != nil {
		log.Fatalf("failed to open pcap: %v", err)
	}
	defer f.Close()

	reader, err := pcapgo.NewReader(f)
	if err != nil {
		log.Fatalf("failed to read pcap: %v", err)
	}

	counts := make(map[string]int)
	var packets, matched int
	var first, last time.Time

	source := gopacket.NewPacketSource(reader, reader.LinkType())
	for packet := range source.Packets() {
		packets++
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp := udpLayer.(*layers.UDP)
		if int(udp.DstPort) != *udpPort {
			continue
		}

		addr, ok := oscAddress(udp.Payload)
		if !ok {
			continue
		}
		matched++
		counts[addr]++

		ts := packet.Metadata().Timestamp
		if first.IsZero() {
			first = ts
		}
		last = ts
	}

	fmt.Printf("%d packets read, %d VMC messages on port %d\n", packets, matched, *udpPort)

	addrs := make([]string, 0, len(counts))
	for addr := range counts {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	for _, addr := range addrs {
		fmt.Printf("  %-28s %d\n", addr, counts[addr])
	}

	frames := counts[blendApplyAddr]
	if duration := last.Sub(first); frames > 1 && duration > 0 {
		fmt.Printf("%d frames over %v (%.1f fps)\n",
			frames, duration.Round(time.Millisecond),
			float64(frames-1)/duration.Seconds())
	}
}

// oscAddress extracts the OSC address pattern from a message payload: a
// '/'-prefixed string padded with NULs to a 4-byte boundary.
func oscAddress(payload []byte) (string, bool) {
	if len(payload) == 0 || payload[0] != '/' {
		return "", false
	}
	end := bytes.IndexByte(payload, 0)
	if end <= 0 {
		return "", false
	}
	return string(payload[:end]), true
}
