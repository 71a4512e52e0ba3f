// Package beepaudio plays sounds in-process through the beep speaker,
// decoding wav, vorbis, mp3 and flac media. Cached sounds are decoded
// once into memory buffers and replayed from there.
package beepaudio

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/chimekit/chime/internal/domain"
	"github.com/chimekit/chime/internal/ports"
)

// themeExtensions are the file suffixes tried when resolving an event
// identifier inside the theme directory.
var themeExtensions = []string{".oga", ".ogg", ".wav"}

// The speaker owns the audio device for the whole process and can only be
// initialized once.
var (
	speakerOnce sync.Once
	speakerErr  error
)

// Config configures the beep backend.
type Config struct {
	// ThemeDir is the directory searched when resolving event identifiers
	// to sound files.
	ThemeDir string

	// SampleRate is the speaker mix rate in Hz. Defaults to 44100.
	SampleRate int

	// Logger receives decode and playback diagnostics.
	Logger *slog.Logger
}

// Backend is a ports.Backend mixing sounds through the beep speaker.
type Backend struct {
	cfg Config
}

// New creates a beep backend.
func New(cfg Config) *Backend {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Backend{cfg: cfg}
}

// CreateHandle implements ports.Backend. The first handle initializes the
// speaker; failure to open the audio device maps to the not-available code.
func (b *Backend) CreateHandle() (ports.Handle, domain.Code) {
	rate := beep.SampleRate(b.cfg.SampleRate)

	speakerOnce.Do(func() {
		speakerErr = speaker.Init(rate, rate.N(100*time.Millisecond))
	})

	if speakerErr != nil {
		b.cfg.Logger.Error("speaker init failed", slog.Any("error", speakerErr))

		return nil, domain.CodeNotAvailable
	}

	return &handle{
		themeDir: b.cfg.ThemeDir,
		rate:     rate,
		logger:   b.cfg.Logger.With(slog.String("component", "backend.beepaudio")),
		playing:  make(map[uint32]*playing),
		buffers:  make(map[string]*buffered),
	}, domain.CodeSuccess
}

// buffered is a sound decoded into memory by Cache.
type buffered struct {
	format beep.Format
	buf    *beep.Buffer
}

// playing tracks one in-flight sound so it can be cancelled.
type playing struct {
	ctrl *beep.Ctrl

	once     sync.Once
	canceled bool
}

type handle struct {
	themeDir string
	rate     beep.SampleRate
	logger   *slog.Logger

	mu        sync.Mutex
	props     *domain.AttrList
	destroyed bool
	playing   map[uint32]*playing
	buffers   map[string]*buffered
}

// Open implements ports.Handle. The audio device is already held by the
// speaker, so opening is a no-op.
func (h *handle) Open() domain.Code {
	return domain.CodeSuccess
}

// SetDriver implements ports.Handle. The speaker picks the platform audio
// API itself and cannot be redirected.
func (h *handle) SetDriver(name string) domain.Code {
	if name == "" {
		return domain.CodeSuccess
	}

	return domain.CodeNotSupported
}

// ApplyProperties merges attrs into the handle's defaults.
func (h *handle) ApplyProperties(attrs *domain.AttrList) domain.Code {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.props == nil {
		h.props = attrs.Clone()

		return domain.CodeSuccess
	}

	h.props.Merge(attrs)

	return domain.CodeSuccess
}

// Play implements ports.Handle. The sound is handed to the speaker before
// Play returns; done, when non-nil, fires when the stream drains or is
// cancelled.
func (h *handle) Play(token uint32, attrs *domain.AttrList, done ports.CompletionFunc) domain.Code {
	merged := h.effectiveAttrs(attrs)

	file, code := h.resolveFile(merged)
	if !code.IsSuccess() {
		return code
	}

	stream, format, closer, code := h.openStream(file)
	if !code.IsSuccess() {
		return code
	}

	var streamer beep.Streamer = stream
	if format.SampleRate != h.rate {
		streamer = beep.Resample(4, format.SampleRate, h.rate, stream)
	}

	if vol, ok := merged.Get(domain.AttrVolume); ok {
		if v, ok := parseVolume(vol); ok {
			streamer = v.apply(streamer)
		}
	}

	ctrl := &beep.Ctrl{Streamer: streamer}
	state := &playing{ctrl: ctrl}

	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()

		if closer != nil {
			closer.Close()
		}

		return domain.CodeState
	}

	h.playing[token] = state
	h.mu.Unlock()

	finish := func() {
		h.mu.Lock()
		delete(h.playing, token)
		canceled := state.canceled
		h.mu.Unlock()

		if closer != nil {
			closer.Close()
		}

		if done == nil {
			return
		}

		state.once.Do(func() {
			if canceled {
				done(token, domain.CodeCanceled)
			} else {
				done(token, domain.CodeSuccess)
			}
		})
	}

	speaker.Play(beep.Seq(ctrl, beep.Callback(finish)))

	return domain.CodeSuccess
}

// Cache decodes the sound into an in-memory buffer keyed by its resolved
// file path. Later plays of the same file stream from the buffer.
func (h *handle) Cache(attrs *domain.AttrList) domain.Code {
	merged := h.effectiveAttrs(attrs)

	file, code := h.resolveFile(merged)
	if !code.IsSuccess() {
		return code
	}

	h.mu.Lock()
	_, have := h.buffers[file]
	h.mu.Unlock()

	if have {
		return domain.CodeSuccess
	}

	f, err := os.Open(file)
	if err != nil {
		return domain.CodeAccess
	}
	defer f.Close()

	stream, format, code := decode(file, f)
	if !code.IsSuccess() {
		return code
	}

	buf := beep.NewBuffer(format)
	buf.Append(stream)

	h.mu.Lock()
	h.buffers[file] = &buffered{format: format, buf: buf}
	h.mu.Unlock()

	return domain.CodeSuccess
}

// Cancel stops the sound for token by detaching its streamer under the
// speaker lock. Completion is then delivered through the usual drain path
// with the canceled code.
func (h *handle) Cancel(token uint32) domain.Code {
	h.mu.Lock()
	state := h.playing[token]

	if state != nil {
		state.canceled = true
	}
	h.mu.Unlock()

	if state == nil {
		return domain.CodeSuccess
	}

	speaker.Lock()
	state.ctrl.Streamer = nil
	speaker.Unlock()

	return domain.CodeSuccess
}

// Destroy stops all playback and drops the decode buffers.
func (h *handle) Destroy() {
	h.mu.Lock()
	states := h.playing
	h.playing = make(map[uint32]*playing)
	h.buffers = make(map[string]*buffered)
	h.destroyed = true
	h.mu.Unlock()

	speaker.Lock()
	for _, state := range states {
		state.canceled = true
		state.ctrl.Streamer = nil
	}
	speaker.Unlock()
}

func (h *handle) effectiveAttrs(attrs *domain.AttrList) *domain.AttrList {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.props == nil {
		return attrs.Clone()
	}

	merged := h.props.Clone()
	merged.Merge(attrs)

	return merged
}

func (h *handle) resolveFile(attrs *domain.AttrList) (string, domain.Code) {
	if file, ok := attrs.Get(domain.AttrMediaFilename); ok {
		if _, err := os.Stat(file); err != nil {
			return "", domain.CodeNotFound
		}

		return file, domain.CodeSuccess
	}

	eventID, ok := attrs.Get(domain.AttrEventID)
	if !ok || eventID == "" {
		return "", domain.CodeInvalid
	}

	if h.themeDir == "" {
		return "", domain.CodeNotFound
	}

	for _, ext := range themeExtensions {
		candidate := filepath.Join(h.themeDir, eventID+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, domain.CodeSuccess
		}
	}

	return "", domain.CodeNotFound
}

// openStream returns a streamer for the file, serving from the decode
// buffer when Cache has seen it. The returned closer, when non-nil, must
// be closed once the stream has drained.
func (h *handle) openStream(file string) (beep.Streamer, beep.Format, *os.File, domain.Code) {
	h.mu.Lock()
	cached := h.buffers[file]
	h.mu.Unlock()

	if cached != nil {
		return cached.buf.Streamer(0, cached.buf.Len()), cached.format, nil, domain.CodeSuccess
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, beep.Format{}, nil, domain.CodeAccess
	}

	stream, format, code := decode(file, f)
	if !code.IsSuccess() {
		f.Close()

		return nil, beep.Format{}, nil, code
	}

	return stream, format, f, domain.CodeSuccess
}

// decode picks a decoder by file extension.
func decode(file string, f *os.File) (beep.StreamSeekCloser, beep.Format, domain.Code) {
	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)

	switch strings.ToLower(filepath.Ext(file)) {
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".ogg", ".oga":
		stream, format, err = vorbis.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".flac":
		stream, format, err = flac.Decode(f)
	default:
		return nil, beep.Format{}, domain.CodeNotSupported
	}

	if err != nil {
		return nil, beep.Format{}, domain.CodeCorrupt
	}

	return stream, format, domain.CodeSuccess
}

// volume is a decibel attenuation ready to wrap a streamer.
type volume struct {
	dB float64
}

func parseVolume(raw string) (volume, bool) {
	dB, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return volume{}, false
	}

	return volume{dB: dB}, true
}

// apply wraps s in an effects.Volume. The effect scales gain by
// Base^Volume, so the decibel value is converted to a base-2 exponent.
func (v volume) apply(s beep.Streamer) beep.Streamer {
	return &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   v.dB / (20 * math.Log10(2)),
		Silent:   v.dB <= -144,
	}
}
