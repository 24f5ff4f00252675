package sim86

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newReader(t *testing.T, data ...byte) *Reader {
	t.Helper()
	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	return r
}

// hexBytes decodes white space separated hex. Text after a # is ignored, so
// programs can be written one instruction per line with their assembly.
func hexBytes(t *testing.T, src string) []byte {
	t.Helper()
	var digits strings.Builder
	for _, line := range strings.Split(src, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		digits.WriteString(strings.Join(strings.Fields(line), ""))
	}
	data, err := hex.DecodeString(digits.String())
	if err != nil {
		t.Fatalf("bad hex program: %v", err)
	}
	return data
}

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

// decodeAll decodes every instruction in data.
func decodeAll(t *testing.T, data ...byte) []*Instruction {
	t.Helper()
	d := NewDecoder(newReader(t, data...), quietLogger())
	var out []*Instruction
	for {
		in, err := d.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, in)
	}
}

func decodeOne(t *testing.T, data ...byte) *Instruction {
	t.Helper()
	ins := decodeAll(t, data...)
	if len(ins) != 1 {
		t.Fatalf("decoded %d instructions, want 1", len(ins))
	}
	return ins[0]
}

// runProgram simulates data to the end and returns every record and the
// session.
func runProgram(t *testing.T, data ...byte) ([]*Record, *Session) {
	t.Helper()
	sess, err := NewSession(bytes.NewReader(data), Options{Simulate: true, MaxSteps: 1000, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	var recs []*Record
	err = sess.Run(func(rec *Record) error {
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return recs, sess
}
