package conf

import (
	"bytes"
	"io"
	"os"
)

// NewEnvExpandedReader wraps r and expands ${VAR} references against
// the process environment before the YAML decoder sees them. Unset
// variables expand to the empty string.
func NewEnvExpandedReader(r io.Reader) io.Reader {
	return &envExpandedReader{src: r}
}

type envExpandedReader struct {
	src io.Reader
	buf *bytes.Reader
}

func (r *envExpandedReader) Read(p []byte) (int, error) {
	if r.buf == nil {
		raw, err := io.ReadAll(r.src)
		if err != nil {
			return 0, err
		}

		expanded := os.Expand(string(raw), os.Getenv)
		r.buf = bytes.NewReader([]byte(expanded))
	}

	return r.buf.Read(p)
}
