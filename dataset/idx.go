package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// IDX magic numbers: two zero bytes, the element type (0x08 = unsigned byte)
// and the number of dimensions.
const (
	idxMagicLabels = 0x00000801
	idxMagicImages = 0x00000803
)

// maxIDXElements caps the declared size of a stream to keep a corrupt header
// from triggering a huge allocation.
const maxIDXElements = 1 << 28

// maybeGunzip transparently unwraps a gzip stream; plain IDX passes through.
func maybeGunzip(r io.Reader) (io.Reader, func() error, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err != nil {
		return nil, nil, fmt.Errorf("peek: %w", ErrTruncated)
	}
	if head[0] != 0x1f || head[1] != 0x8b {
		return br, func() error { return nil }, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, nil, fmt.Errorf("gzip: %w", err)
	}

	return zr, zr.Close, nil
}

func readHeader(r io.Reader, magic uint32, dims int) ([]int, error) {
	var got uint32
	if err := binary.Read(r, binary.BigEndian, &got); err != nil {
		return nil, fmt.Errorf("magic: %w", ErrTruncated)
	}
	if got != magic {
		return nil, fmt.Errorf("magic %#08x, want %#08x: %w", got, magic, ErrBadMagic)
	}

	sizes := make([]int, dims)
	total := 1
	for k := range sizes {
		var v uint32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, fmt.Errorf("dimension %d: %w", k, ErrTruncated)
		}
		sizes[k] = int(v)
		total *= sizes[k]
		if total > maxIDXElements {
			return nil, fmt.Errorf("declared size exceeds %d elements: %w", maxIDXElements, ErrShapeMismatch)
		}
	}

	return sizes, nil
}

func readPayload(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("payload: %w", ErrTruncated)
		}
		return nil, err
	}

	return buf, nil
}

// ReadIDXImages decodes an (optionally gzip-wrapped) IDX3 unsigned-byte image
// file. It returns the image count, height, width and the row-major pixel
// intensities as float64 in [0,255].
func ReadIDXImages(r io.Reader) (n, height, width int, pixels []float64, err error) {
	body, closeFn, err := maybeGunzip(r)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sizes, err := readHeader(body, idxMagicImages, 3)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	n, height, width = sizes[0], sizes[1], sizes[2]

	raw, err := readPayload(body, n*height*width)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	pixels = make([]float64, len(raw))
	for k, b := range raw {
		pixels[k] = float64(b)
	}

	return n, height, width, pixels, nil
}

// ReadIDXLabels decodes an (optionally gzip-wrapped) IDX1 unsigned-byte label file.
func ReadIDXLabels(r io.Reader) (labels []int, err error) {
	body, closeFn, err := maybeGunzip(r)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sizes, err := readHeader(body, idxMagicLabels, 1)
	if err != nil {
		return nil, err
	}
	raw, err := readPayload(body, sizes[0])
	if err != nil {
		return nil, err
	}
	labels = make([]int, len(raw))
	for k, b := range raw {
		labels[k] = int(b)
	}

	return labels, nil
}

// WriteIDXImages encodes images as an uncompressed IDX3 stream. Intensities are
// rounded and clamped to [0,255]. It is the inverse of ReadIDXImages and is
// used to produce fixtures.
func WriteIDXImages(w io.Writer, n, height, width int, pixels []float64) error {
	if len(pixels) != n*height*width {
		return fmt.Errorf("%d pixels for %dx%dx%d: %w", len(pixels), n, height, width, ErrShapeMismatch)
	}
	header := []uint32{idxMagicImages, uint32(n), uint32(height), uint32(width)}
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return err
	}
	raw := make([]byte, len(pixels))
	for k, v := range pixels {
		raw[k] = clampByte(v)
	}
	_, err := w.Write(raw)

	return err
}

// WriteIDXLabels encodes labels (0..255) as an uncompressed IDX1 stream.
func WriteIDXLabels(w io.Writer, labels []int) error {
	header := []uint32{idxMagicLabels, uint32(len(labels))}
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return err
	}
	raw := make([]byte, len(labels))
	for k, l := range labels {
		raw[k] = clampByte(float64(l))
	}
	_, err := w.Write(raw)

	return err
}

func clampByte(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v + 0.5)
	}
}
