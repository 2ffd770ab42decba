// Package locate resolves the bundled whisper-server binaries and the
// optional ffmpeg transcoder on the local machine.
package locate

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/b2tsrl/openwhispr/internal/common/fsutil"
)

// Variant selects which server build to look for.
type Variant string

const (
	// VariantCPU is the portable CPU build.
	VariantCPU Variant = "cpu"
	// VariantCUDA is the NVIDIA-accelerated build. It is only ever
	// resolved by its explicit name; a plain build never satisfies a
	// CUDA lookup.
	VariantCUDA Variant = "cuda"
)

// serverNames maps a variant to its candidate file names, most specific
// first. The unlabelled names are legacy spellings still shipped by
// older bundles.
var serverNames = map[Variant][]string{
	VariantCUDA: {"whisper-server-cuda"},
	VariantCPU:  {"whisper-server-cpu", "whisper-server", "server"},
}

// transcoderWellKnown lists system directories probed for ffmpeg when
// it is not bundled next to the server binaries.
var transcoderWellKnown = map[string][]string{
	"darwin":  {"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin"},
	"linux":   {"/usr/local/bin", "/usr/bin", "/bin", "/snap/bin"},
	"windows": {`C:\ffmpeg\bin`},
}

// Locator finds server and transcoder binaries and memoizes successful
// lookups. Lookups that miss are retried on the next call, so a binary
// installed mid-session is picked up without a restart.
type Locator struct {
	resourcesDir string
	devBinDir    string
	log          zerolog.Logger

	mu         sync.Mutex
	servers    map[Variant]string
	transcoder string
}

// New returns a Locator searching resourcesDir first, then devBinDir.
// devBinDir may be empty.
func New(resourcesDir, devBinDir string, log zerolog.Logger) *Locator {
	return &Locator{
		resourcesDir: resourcesDir,
		devBinDir:    devBinDir,
		log:          log,
		servers:      make(map[Variant]string),
	}
}

// Server returns the absolute path of the server binary for the given
// variant, or ok=false when no candidate exists. The result is cached
// per variant.
func (l *Locator) Server(variant Variant) (path string, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, hit := l.servers[variant]; hit {
		return p, true
	}
	for _, name := range serverNames[variant] {
		for _, dir := range l.searchDirs() {
			p := filepath.Join(dir, exeName(name))
			if fsutil.IsExecutableFile(p) {
				l.servers[variant] = p
				l.log.Debug().Str("variant", string(variant)).Str("path", p).Msg("server binary located")
				return p, true
			}
		}
	}
	return "", false
}

// InvalidateAccelerated drops the cached CUDA server path so the next
// lookup hits the filesystem again. The CPU entry is left alone.
func (l *Locator) InvalidateAccelerated() {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.servers, VariantCUDA)
}

// Transcoder returns the path of an ffmpeg binary, or ok=false when
// none is installed. Bundled copies win over system ones; PATH is the
// last resort. The result is cached.
func (l *Locator) Transcoder() (path string, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.transcoder != "" {
		return l.transcoder, true
	}
	name := exeName("ffmpeg")
	dirs := l.searchDirs()
	dirs = append(dirs, transcoderWellKnown[runtime.GOOS]...)
	for _, dir := range dirs {
		p := filepath.Join(dir, name)
		if transcoderUsable(p) {
			l.transcoder = p
			l.log.Debug().Str("path", p).Msg("transcoder located")
			return p, true
		}
	}
	if p, err := exec.LookPath(name); err == nil {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		l.transcoder = p
		l.log.Debug().Str("path", p).Msg("transcoder located on PATH")
		return p, true
	}
	return "", false
}

// transcoderUsable applies the platform rule for an ffmpeg candidate:
// macOS accepts any regular file, everywhere else it must be executable
// by the current user.
func transcoderUsable(p string) bool {
	if runtime.GOOS == "darwin" {
		info, err := os.Stat(p)
		return err == nil && info.Mode().IsRegular()
	}
	return fsutil.IsExecutableFile(p)
}

func (l *Locator) searchDirs() []string {
	dirs := make([]string, 0, 2)
	if l.resourcesDir != "" {
		dirs = append(dirs, l.resourcesDir)
	}
	if l.devBinDir != "" {
		dirs = append(dirs, l.devBinDir)
	}
	return dirs
}

func exeName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
