package osc

import (
	"reflect"
	"testing"
)

func TestParseMessageRoundTrip(t *testing.T) {
	msg := Message{Path: "/layer/a/geo", Types: "iiii", Args: []interface{}{int32(1), int32(2), int32(3), int32(4)}}
	wire := msg.Marshal()

	got, err := ParseMessage(wire)
	if err != nil {
		t.Fatal(err)
	}
	if got.Path != msg.Path || got.Types != msg.Types || !reflect.DeepEqual(got.Args, msg.Args) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, msg)
	}
}

func TestParseMessageFloatAndString(t *testing.T) {
	msg := Message{Path: "/layer/a/alpha", Types: "fs", Args: []interface{}{float32(0.5), "hello"}}
	got, err := ParseMessage(msg.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if got.Args[0].(float32) != 0.5 || got.Args[1].(string) != "hello" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseMessageRejectsBadPath(t *testing.T) {
	msg := Message{Path: "no-leading-slash", Types: ""}
	if _, err := ParseMessage(msg.Marshal()); err == nil {
		t.Fatal("expected error for path without leading /")
	}
}

func TestParseMessageRejectsTruncated(t *testing.T) {
	if _, err := ParseMessage([]byte("/x\x00\x00,i\x00\x00")); err == nil {
		t.Fatal("expected error for truncated int arg")
	}
}

func TestParsePacketBundleFlattens(t *testing.T) {
	m1 := Message{Path: "/a", Types: "i", Args: []interface{}{int32(1)}}.Marshal()
	m2 := Message{Path: "/b", Types: "i", Args: []interface{}{int32(2)}}.Marshal()

	var bundle []byte
	bundle = append(bundle, bundleTag...)
	bundle = append(bundle, make([]byte, 8)...) // timestamp, ignored
	bundle = appendBundleElem(bundle, m1)
	bundle = appendBundleElem(bundle, m2)

	msgs, err := ParsePacket(bundle)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Path != "/a" || msgs[1].Path != "/b" {
		t.Fatalf("got %+v", msgs)
	}
}

func appendBundleElem(buf, elem []byte) []byte {
	var size [4]byte
	n := uint32(len(elem))
	size[0] = byte(n >> 24)
	size[1] = byte(n >> 16)
	size[2] = byte(n >> 8)
	size[3] = byte(n)
	buf = append(buf, size[:]...)
	return append(buf, elem...)
}
