package object

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compress deflates data into a zlib stream, the on-disk format of loose
// objects.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress: close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates a zlib stream produced by Compress. Malformed input,
// a bad checksum or bytes trailing the stream yield ErrCorruptObject.
func Decompress(data []byte) ([]byte, error) {
	src := bytes.NewReader(data)
	zr, err := zlib.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: zlib header: %v", ErrCorruptObject, err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("%w: inflate: %v", ErrCorruptObject, err)
	}
	if err := zr.Close(); err != nil {
		return nil, fmt.Errorf("%w: close zlib stream: %v", ErrCorruptObject, err)
	}
	if src.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after zlib stream", ErrCorruptObject, src.Len())
	}
	return raw, nil
}
