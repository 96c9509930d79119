// Package record encodes rendered frames to image files on a worker pool
// and indexes them in a manifest.
package record

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cone-renderer/internal/host"
	"cone-renderer/internal/postprocess"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Options configures a Recorder.
type Options struct {
	OutputDir string
	Format    Format
	// Width and Height are the output size; larger frames are downsampled.
	Width, Height int
	Workers       int
	Annotate      bool

	// Progress receives a progress bar when non-nil. Total is the expected
	// frame count; 0 shows a spinner.
	Progress io.Writer
	Total    int

	Logger *slog.Logger
}

// Frame is a captured image with the driver state it was rendered in.
type Frame struct {
	host.Frame
	Image *image.NRGBA
}

// Result holds the outcome of encoding one frame. File is relative to the
// output directory.
type Result struct {
	host.Frame
	File string
	Err  error
}

// Recorder accepts frames from a single producer and encodes them
// concurrently.
type Recorder struct {
	opts   Options
	log    *slog.Logger
	frames chan Frame
	wg     sync.WaitGroup

	mu      sync.Mutex
	results []Result

	bar     *progressbar.ProgressBar
	written atomic.Int64
	start   time.Time
}

// New creates the output directory and starts the workers.
func New(opts Options) (*Recorder, error) {
	if _, err := ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}

	r := &Recorder{
		opts:   opts,
		log:    opts.Logger,
		frames: make(chan Frame, opts.Workers*2),
		start:  time.Now(),
	}
	if opts.Progress != nil {
		total := int64(opts.Total)
		if total <= 0 {
			total = -1
		}
		w := opts.Progress
		r.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("encoding"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("frames"),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		)
	}

	for w := 0; w < opts.Workers; w++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for f := range r.frames {
				res := r.encode(f)
				r.mu.Lock()
				r.results = append(r.results, res)
				r.mu.Unlock()
				if r.bar != nil {
					r.bar.Add(1)
				}
			}
		}()
	}
	return r, nil
}

// Submit queues a frame, blocking while every worker is busy.
func (r *Recorder) Submit(ctx context.Context, f Frame) error {
	select {
	case r.frames <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close waits for the queued frames and returns every result in frame order.
func (r *Recorder) Close() []Result {
	close(r.frames)
	r.wg.Wait()
	if r.bar != nil {
		r.bar.Finish()
	}

	sort.Slice(r.results, func(i, j int) bool { return r.results[i].Index < r.results[j].Index })
	if n := r.written.Load(); n > 0 {
		elapsed := time.Since(r.start).Seconds()
		r.log.Debug("frames encoded", "count", n, "rate", fmt.Sprintf("%.1f/s", float64(n)/elapsed))
	}
	return r.results
}

// FileName is the name frame index is written under.
func FileName(index int, f Format) string {
	return fmt.Sprintf("frame_%05d.%s", index, f.Ext())
}

func (r *Recorder) encode(f Frame) Result {
	res := Result{Frame: f.Frame, File: FileName(f.Index, r.opts.Format)}

	img := f.Image
	if img == nil {
		res.Err = fmt.Errorf("record: frame %d: no image", f.Index)
		return res
	}
	if r.opts.Width > 0 && r.opts.Height > 0 {
		img = postprocess.Downsample(img, r.opts.Width, r.opts.Height)
	}
	if r.opts.Annotate {
		img = postprocess.Annotate(img,
			fmt.Sprintf("#%d  t=%.3fs", f.Index, f.Time),
			fmt.Sprintf("%s  %v %3.0f%%", Label(f.Orientation.String()), f.State, f.Progress*100),
		)
	}

	out, err := os.Create(filepath.Join(r.opts.OutputDir, res.File))
	if err != nil {
		res.Err = fmt.Errorf("record: %w", err)
		return res
	}
	if err := r.opts.Format.Encode(out, img); err != nil {
		out.Close()
		res.Err = fmt.Errorf("record: frame %d: %s encode: %w", f.Index, r.opts.Format, err)
		return res
	}
	if err := out.Close(); err != nil {
		res.Err = fmt.Errorf("record: %w", err)
		return res
	}
	r.written.Add(1)
	return res
}

// Label turns a hyphenated name into title case for display:
// "landscape-left" becomes "Landscape Left". A Caser keeps state between
// calls, so each call builds its own; Label is safe for concurrent use.
func Label(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "-", " "))
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
