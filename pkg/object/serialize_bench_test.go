package object

import (
	"fmt"
	"testing"
)

var marshalTreeBenchmarkSink []byte

func BenchmarkMarshalTree(b *testing.B) {
	tr := &Tree{}
	for i := 0; i < 512; i++ {
		tr.Entries = append(tr.Entries, TreeEntry{
			Mode: ModeFile,
			Name: fmt.Sprintf("file-%04d.go", 511-i),
			Hash: HashBytes([]byte{byte(i), byte(i >> 8)}),
		})
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		out, err := MarshalTree(tr)
		if err != nil {
			b.Fatalf("MarshalTree: %v", err)
		}
		marshalTreeBenchmarkSink = out
	}
}
