package convert

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ascii-telnet/internal/framestore"
	"ascii-telnet/internal/logging"
	"ascii-telnet/internal/models"
)

func init() {
	logging.SetEnabled(false)
}

func decodeAll(t *testing.T, out string) []models.Frame {
	t.Helper()
	var frames []models.Frame
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		f, err := models.DecodeRecord([]byte(line))
		if err != nil {
			t.Fatalf("DecodeRecord(%q): %v", line, err)
		}
		frames = append(frames, f)
	}
	return frames
}

func TestConvert(t *testing.T) {
	input := "3\nab\ncd\nx\nskip\nskip\n1\nef\n"

	var out bytes.Buffer
	res, err := Convert(strings.NewReader(input), &out, Options{Height: 2})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if res.Frames != 2 || res.Skipped != 1 || res.Lines != 8 {
		t.Errorf("result = %+v", res)
	}
	if res.Duration != 4*DefaultTick {
		t.Errorf("Duration = %v, want %v", res.Duration, 4*DefaultTick)
	}

	frames := decodeAll(t, out.String())
	want := []models.Frame{
		{Timestamp: 0, Payload: []byte("\x1b[Hab\r\ncd")},
		{Timestamp: 3 * DefaultTick, Payload: []byte("\x1b[Hef\r\n")},
	}
	if len(frames) != len(want) {
		t.Fatalf("got %d frames, want %d", len(frames), len(want))
	}
	for i := range want {
		if frames[i].Timestamp != want[i].Timestamp || !bytes.Equal(frames[i].Payload, want[i].Payload) {
			t.Errorf("frame %d = {%v %q}, want {%v %q}", i,
				frames[i].Timestamp, frames[i].Payload, want[i].Timestamp, want[i].Payload)
		}
	}
}

func TestConvertOptions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  Options
		want  string
	}{
		{"clear to eol", "1\nab\ncd\n", Options{Height: 2, ClearEOL: true}, "\x1b[Hab\x1b[K\r\ncd\x1b[K"},
		{"crlf input", "1\r\nab\r\ncd\r\n", Options{Height: 2}, "\x1b[Hab\r\ncd"},
		{"ill-formed utf8", "1\n\xffa\n", Options{Height: 1}, "\x1b[H�a"},
		{"padded tick line", " 2 \nz\n", Options{Height: 1}, "\x1b[Hz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if _, err := Convert(strings.NewReader(tt.input), &out, tt.opts); err != nil {
				t.Fatalf("Convert error: %v", err)
			}
			frames := decodeAll(t, out.String())
			if string(frames[0].Payload) != tt.want {
				t.Errorf("payload = %q, want %q", frames[0].Payload, tt.want)
			}
		})
	}
}

func TestConvertCustomTick(t *testing.T) {
	var out bytes.Buffer
	res, err := Convert(strings.NewReader("2\na\n5\nb\n"), &out, Options{Height: 1, Tick: 100 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	frames := decodeAll(t, out.String())
	if frames[1].Timestamp != 200*time.Millisecond || res.Duration != 700*time.Millisecond {
		t.Errorf("timestamps = %v, duration = %v", frames[1].Timestamp, res.Duration)
	}
}

func TestConvertNoFrames(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no numeric tick", "x\na\nb\n"},
		{"negative tick", "-1\na\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(strings.NewReader(tt.input), &bytes.Buffer{}, Options{Height: 2})
			if !errors.Is(err, ErrNoFrames) {
				t.Errorf("Convert(%q) error = %v, want ErrNoFrames", tt.input, err)
			}
		})
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestConvertWriteError(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("1\nsome frame content\n")
	}
	res, err := Convert(strings.NewReader(b.String()), failWriter{}, Options{Height: 1})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Convert to failing writer = (%+v, %v), want write error", res, err)
	}
	if res.Frames >= 200 {
		t.Errorf("Frames = %d, conversion did not stop at the failed write", res.Frames)
	}
}

func TestConvertFileLoads(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "starwars.txt")
	out := filepath.Join(dir, "starwars.jsonl")
	os.WriteFile(in, []byte("1\nhello\n2\nworld\n"), 0o644)

	res, err := ConvertFile(in, out, Options{Height: 1})
	if err != nil {
		t.Fatalf("ConvertFile error: %v", err)
	}
	if res.Frames != 2 {
		t.Errorf("Frames = %d, want 2", res.Frames)
	}

	store, err := framestore.Load(out, 1)
	if err != nil {
		t.Fatalf("framestore.Load error: %v", err)
	}
	if store.Len() != 2 || store.Timestamp(1) != DefaultTick {
		t.Errorf("store len = %d, ts[1] = %v", store.Len(), store.Timestamp(1))
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("temp file left behind: %v", entries)
	}
}

func TestFindInput(t *testing.T) {
	dir := t.TempDir()
	second := filepath.Join(dir, "starwars.txt")
	os.WriteFile(second, []byte("1\n"), 0o644)

	got, ok := FindInput(filepath.Join(dir, "starwars"), second)
	if !ok || got != second {
		t.Errorf("FindInput = %q, %v", got, ok)
	}
	if _, ok := FindInput(filepath.Join(dir, "none")); ok {
		t.Error("FindInput found a missing file")
	}
}
