package embeddings

import (
	"archive/zip"
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

const npyMagic = "\x93NUMPY"

// loadNpz reads the embeddings array from an npz archive (a zip holding
// one .npy entry per array). The file is memory-mapped; archive/zip
// reads entries straight off the mapping.
func loadNpz(path string) (*Matrix, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open embeddings file %q", path)
	}
	defer r.Close()

	zr, err := zip.NewReader(r, int64(r.Len()))
	if err != nil {
		return nil, errors.Wrapf(err, "%q is not an npz archive", path)
	}
	for _, f := range zr.File {
		if f.Name != ArrayName+".npy" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %q in %q", f.Name, path)
		}
		m, err := readNpy(rc)
		_ = rc.Close()
		return m, errors.Wrapf(err, "failed to read array %q from %q", ArrayName, path)
	}
	return nil, errors.Errorf("array %q not found in %q", ArrayName, path)
}

// readNpy parses a version 1.x or 2.x npy stream holding a little-endian
// C-order float32 or float64 matrix.
func readNpy(r io.Reader) (*Matrix, error) {
	var magic [6]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, errors.Wrap(err, "failed to read npy magic")
	}
	if string(magic[:]) != npyMagic {
		return nil, errors.Errorf("invalid npy magic %q", magic[:])
	}
	var version [2]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return nil, errors.Wrap(err, "failed to read npy version")
	}
	var headerLen int
	switch version[0] {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, errors.Wrap(err, "failed to read npy header length")
		}
		headerLen = int(n)
	case 2:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, errors.Wrap(err, "failed to read npy header length")
		}
		headerLen = int(n)
	default:
		return nil, errors.Errorf("unsupported npy version %d.%d", version[0], version[1])
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, errors.Wrap(err, "failed to read npy header")
	}

	descr, fortran, shape, err := parseNpyHeader(string(header))
	if err != nil {
		return nil, err
	}
	if fortran {
		return nil, errors.New("fortran-order npy arrays are not supported")
	}
	if len(shape) != 2 {
		return nil, errors.Errorf("embeddings must be a matrix, got shape %v", shape)
	}

	m := &Matrix{Rows: shape[0], Cols: shape[1]}
	n := m.Rows * m.Cols
	m.Data = make([]float32, n)
	switch descr {
	case "<f4":
		buf := make([]byte, 4*n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrap(err, "failed to read npy data")
		}
		for i := 0; i < n; i++ {
			m.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
		}
	case "<f8":
		buf := make([]byte, 8*n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrap(err, "failed to read npy data")
		}
		for i := 0; i < n; i++ {
			m.Data[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:])))
		}
	default:
		return nil, errors.Errorf("unsupported npy dtype %q", descr)
	}
	return m, nil
}

// parseNpyHeader picks descr, fortran_order and shape out of the Python
// dict literal the npy header carries, e.g.
// {'descr': '<f4', 'fortran_order': False, 'shape': (100, 300), }.
func parseNpyHeader(header string) (descr string, fortran bool, shape []int, err error) {
	descrField, err := npyHeaderField(header, "descr")
	if err != nil {
		return "", false, nil, err
	}
	descr = strings.Trim(descrField, "'\"")

	orderField, err := npyHeaderField(header, "fortran_order")
	if err != nil {
		return "", false, nil, err
	}
	fortran = orderField == "True"

	shapeField, err := npyHeaderField(header, "shape")
	if err != nil {
		return "", false, nil, err
	}
	shapeField = strings.Trim(shapeField, "()")
	for _, part := range strings.Split(shapeField, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dim, err := strconv.Atoi(part)
		if err != nil {
			return "", false, nil, errors.Wrapf(err, "invalid npy shape %q", shapeField)
		}
		shape = append(shape, dim)
	}
	return descr, fortran, shape, nil
}

// npyHeaderField returns the raw value of one dict key, up to the next
// top-level comma or closing brace. Parentheses nest for the shape tuple.
func npyHeaderField(header, key string) (string, error) {
	marker := "'" + key + "':"
	i := strings.Index(header, marker)
	if i < 0 {
		return "", errors.Errorf("npy header missing %q", key)
	}
	rest := header[i+len(marker):]
	depth := 0
	for j, c := range rest {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',', '}':
			if depth == 0 {
				return strings.TrimSpace(rest[:j]), nil
			}
		}
	}
	return strings.TrimSpace(rest), nil
}
