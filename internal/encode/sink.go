package encode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Sink is an animation output. Encode runs on the worker goroutines; Write
// receives the encoded frames one at a time, in playback order.
type Sink interface {
	Encode(img image.Image) ([]byte, error)
	Write(number int, data []byte) error
	Close() error
}

type SinkOptions struct {
	FPS     float64
	Bitrate string
	Width   int
	Height  int
}

var ErrUnsupportedOutput = errors.New("unsupported output")

// Open picks the sink from the output name: .mp4, .mov and .mkv go through
// ffmpeg, .gif is written directly, a name without an extension is a
// directory of PNGs.
func Open(ctx context.Context, path string, opts SinkOptions) (Sink, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp4", ".mov", ".mkv":
		return NewFFmpegSink(ctx, path, opts)
	case ".gif":
		return NewGIFSink(path, opts), nil
	case "":
		return NewPNGDirSink(path)
	default:
		return nil, fmt.Errorf("%w %q: use .mp4, .mov, .mkv, .gif or a directory name without an extension", ErrUnsupportedOutput, ext)
	}
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --- ffmpeg ---

type FFmpegSink struct {
	cmd *exec.Cmd
	in  io.WriteCloser
}

// NewFFmpegSink starts ffmpeg reading PNG frames from its stdin.
func NewFFmpegSink(ctx context.Context, path string, opts SinkOptions) (*FFmpegSink, error) {
	rate := fmt.Sprintf("%f", opts.FPS)
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "image2pipe", "-vcodec", "png", "-r", rate, "-i", "-",
		"-c:v", "libx264", "-b:v", opts.Bitrate, "-pix_fmt", "yuv420p",
		"-r", rate, path)
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get ffmpeg stdin pipe: %w", err)
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return &FFmpegSink{cmd: cmd, in: in}, nil
}

func (s *FFmpegSink) Encode(img image.Image) ([]byte, error) { return encodePNG(img) }

func (s *FFmpegSink) Write(_ int, data []byte) error {
	_, err := s.in.Write(data)
	return err
}

func (s *FFmpegSink) Close() error {
	s.in.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg command failed: %w", err)
	}
	return nil
}

// --- GIF ---

// GIFSink quantises frames to the Plan 9 palette on the workers and keeps
// them in memory until Close writes the file.
type GIFSink struct {
	path   string
	delay  int
	bounds image.Rectangle
	anim   gif.GIF
}

func NewGIFSink(path string, opts SinkOptions) *GIFSink {
	delay := 4
	if opts.FPS > 0 {
		delay = max(int(100/opts.FPS+0.5), 2)
	}
	return &GIFSink{
		path:   path,
		delay:  delay,
		bounds: image.Rect(0, 0, opts.Width, opts.Height),
	}
}

func (s *GIFSink) Encode(img image.Image) ([]byte, error) {
	if img.Bounds().Size() != s.bounds.Size() {
		return nil, fmt.Errorf("frame is %v, gif is %v", img.Bounds().Size(), s.bounds.Size())
	}
	pm := image.NewPaletted(s.bounds, palette.Plan9)
	draw.FloydSteinberg.Draw(pm, s.bounds, img, img.Bounds().Min)
	return pm.Pix, nil
}

func (s *GIFSink) Write(_ int, data []byte) error {
	pm := &image.Paletted{Pix: data, Stride: s.bounds.Dx(), Rect: s.bounds, Palette: palette.Plan9}
	s.anim.Image = append(s.anim.Image, pm)
	s.anim.Delay = append(s.anim.Delay, s.delay)
	return nil
}

func (s *GIFSink) Close() error {
	if len(s.anim.Image) == 0 {
		return nil
	}
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &s.anim); err != nil {
		f.Close()
		return fmt.Errorf("encode gif: %w", err)
	}
	return f.Close()
}

// --- PNG sequence ---

type PNGDirSink struct {
	dir string
}

func NewPNGDirSink(dir string) (*PNGDirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create frame directory: %w", err)
	}
	return &PNGDirSink{dir: dir}, nil
}

func (s *PNGDirSink) Encode(img image.Image) ([]byte, error) { return encodePNG(img) }

func (s *PNGDirSink) Write(number int, data []byte) error {
	return os.WriteFile(s.FramePath(number), data, 0o644)
}

func (s *PNGDirSink) FramePath(number int) string {
	return filepath.Join(s.dir, fmt.Sprintf("frame_%05d.png", number))
}

func (s *PNGDirSink) Close() error { return nil }
