package dataset

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Source produces a labeled image matrix.
type Source interface {
	Load(ctx context.Context) (*Images, error)
}

// MNIST file names as published with the original dataset.
const (
	MNISTTrainImages = "train-images-idx3-ubyte.gz"
	MNISTTrainLabels = "train-labels-idx1-ubyte.gz"
	MNISTTestImages  = "t10k-images-idx3-ubyte.gz"
	MNISTTestLabels  = "t10k-labels-idx1-ubyte.gz"
)

// DefaultMNISTBase is a public mirror of the four MNIST IDX files.
const DefaultMNISTBase = "https://storage.googleapis.com/cvdf-datasets/mnist/"

// DefaultFetchTimeout bounds a single file download when no client is given.
const DefaultFetchTimeout = 5 * time.Minute

// MNIST loads the digits from Base, which is either an http(s) URL prefix or a
// local directory holding the four IDX files. Training rows come first,
// followed by the test rows.
type MNIST struct {
	Base   string
	Client *http.Client
}

var _ Source = MNIST{}

// Load fetches and decodes the four files. Every run reads them in full.
func (m MNIST) Load(ctx context.Context) (*Images, error) {
	trainX, trainH, trainW, trainY, err := m.part(ctx, MNISTTrainImages, MNISTTrainLabels)
	if err != nil {
		return nil, err
	}
	testX, testH, testW, testY, err := m.part(ctx, MNISTTestImages, MNISTTestLabels)
	if err != nil {
		return nil, err
	}
	if trainH != testH || trainW != testW {
		return nil, fmt.Errorf("train %dx%d vs test %dx%d: %w", trainH, trainW, testH, testW, ErrShapeMismatch)
	}

	n := len(trainY) + len(testY)
	if n == 0 || trainH*trainW == 0 {
		return nil, fmt.Errorf("empty dataset: %w", ErrShapeMismatch)
	}
	pixels := make([]float64, 0, n*trainH*trainW)
	pixels = append(pixels, trainX...)
	pixels = append(pixels, testX...)
	labels := make([]int, 0, n)
	labels = append(labels, trainY...)
	labels = append(labels, testY...)

	return &Images{
		X:      mat.NewDense(n, trainH*trainW, pixels),
		Labels: labels,
		Height: trainH,
		Width:  trainW,
	}, nil
}

func (m MNIST) part(ctx context.Context, imagesName, labelsName string) ([]float64, int, int, []int, error) {
	rc, err := m.open(ctx, imagesName)
	if err != nil {
		return nil, 0, 0, nil, err
	}
	n, h, w, pixels, err := ReadIDXImages(rc)
	rc.Close()
	if err != nil {
		return nil, 0, 0, nil, fmt.Errorf("%s: %w", imagesName, err)
	}

	rc, err = m.open(ctx, labelsName)
	if err != nil {
		return nil, 0, 0, nil, err
	}
	labels, err := ReadIDXLabels(rc)
	rc.Close()
	if err != nil {
		return nil, 0, 0, nil, fmt.Errorf("%s: %w", labelsName, err)
	}
	if len(labels) != n {
		return nil, 0, 0, nil, fmt.Errorf("%d images vs %d labels: %w", n, len(labels), ErrShapeMismatch)
	}

	return pixels, h, w, labels, nil
}

func (m MNIST) base() string {
	if m.Base == "" {
		return DefaultMNISTBase
	}
	return m.Base
}

func isRemote(base string) bool {
	return strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://")
}

func (m MNIST) open(ctx context.Context, name string) (io.ReadCloser, error) {
	base := m.base()
	if !isRemote(base) {
		f, err := os.Open(filepath.Join(base, name))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		return f, nil
	}

	url := strings.TrimSuffix(base, "/") + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: status %d: %w", url, resp.StatusCode, ErrFetch)
	}

	return resp.Body, nil
}

// WriteMNISTDir stores train and test as the four gzip-wrapped IDX files in dir,
// the layout MNIST{Base: dir} reads back. Intensities are rounded to bytes.
func WriteMNISTDir(dir string, train, test *Images) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	parts := []struct {
		images, labels string
		data           *Images
	}{
		{MNISTTrainImages, MNISTTrainLabels, train},
		{MNISTTestImages, MNISTTestLabels, test},
	}
	for _, p := range parts {
		n, c := p.data.X.Dims()
		if c != p.data.Height*p.data.Width || n != p.data.Len() {
			return fmt.Errorf("%s: %w", p.images, ErrShapeMismatch)
		}
		pixels := make([]float64, 0, n*c)
		for i := 0; i < n; i++ {
			pixels = append(pixels, mat.Row(nil, i, p.data.X)...)
		}
		err := writeGzip(filepath.Join(dir, p.images), func(w io.Writer) error {
			return WriteIDXImages(w, n, p.data.Height, p.data.Width, pixels)
		})
		if err != nil {
			return err
		}
		err = writeGzip(filepath.Join(dir, p.labels), func(w io.Writer) error {
			return WriteIDXLabels(w, p.data.Labels)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func writeGzip(path string, body func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	zw := gzip.NewWriter(f)
	if err = body(zw); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return zw.Close()
}
