// Package execplay plays sounds by shelling out to a command-line player
// such as paplay or aplay. It resolves event identifiers against a
// freedesktop-style sound theme directory and reports playback completion
// when the player process exits.
package execplay

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/chimekit/chime/internal/domain"
	"github.com/chimekit/chime/internal/ports"
)

// Players tried in order when no driver is forced. paplay talks to
// PulseAudio (and PipeWire through its Pulse shim), aplay to raw ALSA.
var players = []string{"paplay", "aplay"}

// driverPlayers maps driver names accepted by SetDriver to player binaries.
var driverPlayers = map[string]string{
	"pulse": "paplay",
	"alsa":  "aplay",
}

// themeExtensions are the file suffixes tried when resolving an event
// identifier inside the theme directory.
var themeExtensions = []string{".oga", ".ogg", ".wav"}

// Config configures the exec backend.
type Config struct {
	// ThemeDir is the directory searched when resolving event identifiers
	// to sound files, e.g. /usr/share/sounds/freedesktop/stereo.
	ThemeDir string

	// Player forces a specific player binary. Empty means autodetect.
	Player string

	// Logger receives per-process diagnostics. Defaults to slog.Default.
	Logger *slog.Logger
}

// Backend is a ports.Backend running an external player per sound.
type Backend struct {
	cfg Config
}

// New creates an exec backend.
func New(cfg Config) *Backend {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Backend{cfg: cfg}
}

// CreateHandle implements ports.Backend. It fails with the not-available
// code when no player binary can be found on PATH.
func (b *Backend) CreateHandle() (ports.Handle, domain.Code) {
	player, err := resolvePlayer(b.cfg.Player)
	if err != nil {
		return nil, domain.CodeNotAvailable
	}

	return &handle{
		themeDir: b.cfg.ThemeDir,
		player:   player,
		logger:   b.cfg.Logger.With(slog.String("component", "backend.execplay")),
		procs:    make(map[uint32]*exec.Cmd),
	}, domain.CodeSuccess
}

func resolvePlayer(forced string) (string, error) {
	if forced != "" {
		return exec.LookPath(forced)
	}

	for _, name := range players {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no player binary found (tried %v)", players)
}

type handle struct {
	themeDir string
	player   string
	logger   *slog.Logger

	mu        sync.Mutex
	props     *domain.AttrList
	destroyed bool
	procs     map[uint32]*exec.Cmd
}

// Open verifies the player binary is still executable. Process-per-sound
// players hold no persistent connection, so there is nothing else to do
// eagerly.
func (h *handle) Open() domain.Code {
	if _, err := os.Stat(h.player); err != nil {
		return domain.CodeNotAvailable
	}

	return domain.CodeSuccess
}

// SetDriver switches the player binary. Only driver names with a known
// player mapping are supported.
func (h *handle) SetDriver(name string) domain.Code {
	binary, ok := driverPlayers[name]
	if !ok {
		return domain.CodeNotSupported
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return domain.CodeNotAvailable
	}

	h.mu.Lock()
	h.player = path
	h.mu.Unlock()

	return domain.CodeSuccess
}

// ApplyProperties merges attrs into the handle's defaults. They act as
// fallbacks for play and cache requests that do not carry their own.
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

// Play implements ports.Handle. The player process is started before Play
// returns; done, when non-nil, fires once the process exits.
func (h *handle) Play(token uint32, attrs *domain.AttrList, done ports.CompletionFunc) domain.Code {
	merged := h.effectiveAttrs(attrs)

	file, code := h.resolveFile(merged)
	if !code.IsSuccess() {
		return code
	}

	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()

		return domain.CodeState
	}

	player := h.player
	h.mu.Unlock()

	cmd := exec.Command(player, playerArgs(player, merged, file)...)

	if err := cmd.Start(); err != nil {
		h.logger.Warn("player start failed",
			slog.String("player", player),
			slog.String("file", file),
			slog.Any("error", err),
		)

		return domain.CodeSystem
	}

	h.mu.Lock()
	h.procs[token] = cmd
	h.mu.Unlock()

	go h.wait(token, cmd, done)

	return domain.CodeSuccess
}

func (h *handle) wait(token uint32, cmd *exec.Cmd, done ports.CompletionFunc) {
	err := cmd.Wait()

	h.mu.Lock()
	// The entry may already be gone if Cancel raced with process exit.
	canceled := h.procs[token] == nil
	delete(h.procs, token)
	h.mu.Unlock()

	if done == nil {
		return
	}

	switch {
	case canceled:
		done(token, domain.CodeCanceled)
	case err != nil:
		done(token, domain.CodeSystem)
	default:
		done(token, domain.CodeSuccess)
	}
}

// Cache resolves the sound file and reads its header block, warming the
// page cache. Command-line players have no persistent sample cache to
// upload into.
func (h *handle) Cache(attrs *domain.AttrList) domain.Code {
	merged := h.effectiveAttrs(attrs)

	file, code := h.resolveFile(merged)
	if !code.IsSuccess() {
		return code
	}

	f, err := os.Open(file)
	if err != nil {
		return domain.CodeAccess
	}
	defer f.Close()

	var header [4096]byte

	_, err = io.ReadFull(f, header[:])
	switch {
	case errors.Is(err, io.EOF):
		// A zero-length file carries no decodable sound data.
		return domain.CodeCorrupt
	case errors.Is(err, io.ErrUnexpectedEOF):
		// Short files are fine; the read still warmed the page cache.
	case err != nil:
		return domain.CodeIO
	}

	return domain.CodeSuccess
}

// Cancel kills the player process for token, if one is still running.
func (h *handle) Cancel(token uint32) domain.Code {
	h.mu.Lock()
	cmd := h.procs[token]

	if cmd != nil {
		// Mark as canceled for the waiter before the process exits.
		h.procs[token] = nil
	}
	h.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return domain.CodeSuccess
	}

	if err := cmd.Process.Kill(); err != nil {
		return domain.CodeSystem
	}

	return domain.CodeSuccess
}

// Destroy kills every outstanding player process.
func (h *handle) Destroy() {
	h.mu.Lock()
	procs := h.procs
	h.procs = make(map[uint32]*exec.Cmd)
	h.destroyed = true
	h.mu.Unlock()

	for _, cmd := range procs {
		if cmd != nil && cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}
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

// resolveFile turns the request attributes into a playable file path. An
// explicit filename wins; otherwise the event identifier is looked up in
// the theme directory.
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

// playerArgs builds the player command line. Volume attenuation is only
// honored by paplay; aplay has no volume flag.
func playerArgs(player string, attrs *domain.AttrList, file string) []string {
	var args []string

	if filepath.Base(player) == "paplay" {
		if vol, ok := attrs.Get(domain.AttrVolume); ok {
			if level, ok := paplayVolume(vol); ok {
				args = append(args, "--volume="+strconv.Itoa(level))
			}
		}
	}

	return append(args, file)
}

// paplayVolume converts a decibel attenuation to paplay's linear volume
// scale, where 65536 is full volume.
func paplayVolume(db string) (int, bool) {
	dB, err := strconv.ParseFloat(db, 64)
	if err != nil {
		return 0, false
	}

	level := int(math.Round(65536 * math.Pow(10, dB/20)))
	if level < 0 {
		level = 0
	}

	if level > 65536 {
		level = 65536
	}

	return level, true
}
