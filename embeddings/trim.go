package embeddings

import (
	"archive/zip"
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/seqtag/go-seqtag/vocab"
)

// Trim reads a whitespace-delimited GloVe text file, keeps the vectors of
// tokens present in words, and writes them to outPath as an npz archive
// with rows aligned to the vocabulary ids. Tokens without a pretrained
// vector, including <PAD>, keep all-zero rows. The archive is written to
// a .tmp sibling and renamed into place, guarded by a .lock file so
// concurrent trimmers of the same output do not clobber each other.
func Trim(glovePath string, words *vocab.Vocab, dim int, outPath string) error {
	if dim <= 0 {
		return errors.Errorf("embedding dimension must be positive, got %d", dim)
	}
	if words.Len() == 0 {
		return errors.New("cannot trim embeddings for an empty vocabulary")
	}

	lockPath := outPath + ".lock"
	fileLock := flock.New(lockPath)
	if err := fileLock.Lock(); err != nil {
		return errors.Wrapf(err, "failed to lock %q", lockPath)
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			klog.Errorf("failed to unlock %q: %v", lockPath, err)
		}
	}()

	m := &Matrix{Rows: words.Len(), Cols: dim, Data: make([]float32, words.Len()*dim)}
	found, err := fillFromGlove(m, glovePath, words)
	if err != nil {
		return err
	}
	klog.V(1).Infof("trimmed %s: %d/%d tokens have pretrained vectors", glovePath, found, words.Len())

	tmpPath := outPath + ".tmp"
	if err := writeNpz(tmpPath, m); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to move %q to %q", tmpPath, outPath)
	}
	return nil
}

// fillFromGlove copies every vector whose token is in words into the row
// with that token's id.
func fillFromGlove(m *Matrix, path string, words *vocab.Vocab) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open GloVe file %q", path)
	}
	defer f.Close()

	found := 0
	scanner := bufio.NewScanner(f)
	// GloVe lines for high-dimension vectors exceed the default token
	// limit.
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		id, ok := words.ID(fields[0])
		if !ok {
			continue
		}
		if len(fields)-1 != m.Cols {
			return 0, errors.Errorf("%s:%d: expected %d vector components, got %d", path, lineNo, m.Cols, len(fields)-1)
		}
		row := m.Row(id)
		for i, field := range fields[1:] {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return 0, errors.Wrapf(err, "%s:%d: invalid vector component %q", path, lineNo, field)
			}
			row[i] = float32(v)
		}
		found++
	}
	if err := scanner.Err(); err != nil {
		return 0, errors.Wrapf(err, "failed to read GloVe file %q", path)
	}
	return found, nil
}

// writeNpz writes the matrix as an npz archive holding one "embeddings"
// array. Entries are stored uncompressed, as numpy's savez writes them.
func writeNpz(path string, m *Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", path)
	}
	zw := zip.NewWriter(f)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: ArrayName + ".npy", Method: zip.Store})
	if err == nil {
		err = writeNpy(w, m)
	}
	if err == nil {
		err = zw.Close()
	} else {
		_ = zw.Close()
	}
	if err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to write npz archive %q", path)
	}
	return errors.Wrapf(f.Close(), "failed to close npz archive %q", path)
}

// writeNpy writes a version 1.0 npy stream: little-endian C-order
// float32, header padded to a 64-byte boundary.
func writeNpy(w io.Writer, m *Matrix) error {
	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", m.Rows, m.Cols)
	total := len(npyMagic) + 2 + 2 + len(header) + 1
	header += strings.Repeat(" ", (64-total%64)%64) + "\n"

	if _, err := io.WriteString(w, npyMagic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	buf := make([]byte, 4*len(m.Data))
	for i, v := range m.Data {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	_, err := w.Write(buf)
	return err
}
