// internal/sweep/system.go
package sweep

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/mwiater/bottleneck/internal/facts"
)

// Program records where and when the run happens.
type Program struct {
	// OSRelease is the os-release file the distro name is read from.
	OSRelease string
}

func (Program) Name() string       { return "program" }
func (Program) Requires() []string { return nil }
func (Program) Produces() []string {
	return []string{"timestamp", "log", "run-id", "host", "platform", "distro", "cwd"}
}

func (p Program) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	res := newResult()
	res.Facts.Set("timestamp", env.Timestamp)
	res.Facts.Set("log", env.LogDir)
	res.Facts.Set("run-id", uuid.NewString())

	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	res.Facts.Set("host", host)
	res.Facts.Set("platform", platform())

	path := p.OSRelease
	if path == "" {
		path = "/etc/os-release"
	}
	res.Facts.Set("distro", distro(path))

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	res.Facts.Set("cwd", cwd)
	return res, nil
}

// distro returns PRETTY_NAME from an os-release file, or "unknown".
func distro(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "unknown"
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if ok && key == "PRETTY_NAME" {
			return strings.Trim(value, `"'`)
		}
	}
	return "unknown"
}

// Hardware lists the machine's main components via lshw. Discovery output
// is cached for Env.HardwareTTL since it rarely changes.
type Hardware struct {
	Command string
}

const lshwCommand = `lshw -short -sanitize | cut -b25- | grep -E "memory|processor|bridge|network|storage"`

func (Hardware) Name() string       { return "hardware" }
func (Hardware) Requires() []string { return nil }
func (Hardware) Produces() []string { return []string{"hardware"} }

func (h Hardware) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	cmd := h.Command
	if cmd == "" {
		cmd = lshwCommand
	}
	out, err := env.session(h.Name(), env.HardwareTTL).Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	res := newResult()
	res.Facts.Set("hardware", out)
	return res, nil
}

// Software records the compiler and C library versions.
type Software struct {
	Compiler string
	Libc     string
}

func (Software) Name() string       { return "software" }
func (Software) Requires() []string { return nil }
func (Software) Produces() []string { return []string{"compiler", "libc"} }

func (s Software) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	compiler, libc := s.Compiler, s.Libc
	if compiler == "" {
		compiler = "gcc --version"
	}
	if libc == "" {
		libc = "ldd --version"
	}

	sess := env.session(s.Name(), env.HardwareTTL)
	res := newResult()
	for _, q := range []struct{ key, cmd string }{{"compiler", compiler}, {"libc", libc}} {
		out, err := sess.Run(ctx, q.cmd)
		if err != nil {
			return nil, err
		}
		first, _, _ := strings.Cut(out, "\n")
		res.Facts.Set(q.key, first)
	}
	return res, nil
}
