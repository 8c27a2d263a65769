package engine

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Scalar is the totally-ordered numeric value a probe yields and a
// predicate compares (§3).
type Scalar float64

// Probe is a pure function pid -> Scalar; it is not given the debugger
// session. Implementations must not perturb the target process's state;
// the reference probes only read /proc.
type Probe func(pid int) (Scalar, error)

// ProbeRegistry is a name-keyed table of probes built at startup (§9
// Design Notes: "avoid any form of runtime introspection over the
// program's own symbols").
type ProbeRegistry struct {
	probes  map[string]Probe
	names   []string
	deflt   string
}

// DefaultProbeName is used when the CLI is not given a metricName.
const DefaultProbeName = "private-memory"

// NewProbeRegistry builds the registry with the five reference /proc-based
// probes from §4.1.
func NewProbeRegistry() *ProbeRegistry {
	r := &ProbeRegistry{probes: make(map[string]Probe)}
	r.register("private-dirty", privateDirtyProbe)
	r.register("private-memory", privateMemoryProbe)
	r.register("read-bytes", readBytesProbe)
	r.register("write-bytes", writeBytesProbe)
	r.register("open-fds", openFDsProbe)
	r.deflt = DefaultProbeName
	return r
}

func (r *ProbeRegistry) register(name string, p Probe) {
	r.probes[name] = p
	r.names = append(r.names, name)
}

// Names lists registered probe names in registration order, for the
// "probes" CLI subcommand.
func (r *ProbeRegistry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Lookup returns the named probe, or the default probe when name is empty.
func (r *ProbeRegistry) Lookup(name string) (Probe, error) {
	if name == "" {
		name = r.deflt
	}
	p, ok := r.probes[name]
	if !ok {
		return nil, fmt.Errorf("%w: no probe named %q (have: %s)", ErrProbeUnavailable, name, strings.Join(r.names, ", "))
	}
	return p, nil
}

func smapsPath(pid int) string { return fmt.Sprintf("/proc/%d/smaps", pid) }
func ioPath(pid int) string    { return fmt.Sprintf("/proc/%d/io", pid) }
func fdPath(pid int) string    { return fmt.Sprintf("/proc/%d/fd", pid) }

// sumSmapsFields adds up every integer field in /proc/<pid>/smaps whose key
// starts with one of the given prefixes. smaps lines look like
// "Private_Dirty:      12 kB".
func sumSmapsFields(pid int, prefixes ...string) (Scalar, error) {
	f, err := os.Open(smapsPath(pid))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}
	defer f.Close()

	var total int64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		for _, prefix := range prefixes {
			if !strings.HasPrefix(line, prefix) {
				continue
			}
			fields := strings.Fields(line[len(prefix):])
			if len(fields) == 0 {
				continue
			}
			v, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				continue
			}
			total += v
			break
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}
	return Scalar(total), nil
}

func privateDirtyProbe(pid int) (Scalar, error) {
	return sumSmapsFields(pid, "Private_Dirty:")
}

func privateMemoryProbe(pid int) (Scalar, error) {
	return sumSmapsFieldsByKeyPrefix(pid, "Private_")
}

// sumSmapsFieldsByKeyPrefix adds every integer field whose *key* (not the
// whole line) starts with keyPrefix, e.g. "Private_" matches
// Private_Clean:, Private_Dirty:, and Private_Hugetlb: alike.
func sumSmapsFieldsByKeyPrefix(pid int, keyPrefix string) (Scalar, error) {
	f, err := os.Open(smapsPath(pid))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}
	defer f.Close()

	var total int64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, keyPrefix) {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		fields := strings.Fields(line[colon+1:])
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			continue
		}
		total += v
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}
	return Scalar(total), nil
}

// readIOField reads one "key: value" field from /proc/<pid>/io.
func readIOField(pid int, key string) (Scalar, error) {
	f, err := os.Open(ioPath(pid))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, key) {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(line[len(key):]), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: unparsable %s: %v", ErrProbeUnavailable, key, err)
		}
		return Scalar(v), nil
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}
	return 0, fmt.Errorf("%w: %s not found in %s", ErrProbeUnavailable, key, ioPath(pid))
}

func readBytesProbe(pid int) (Scalar, error) {
	return readIOField(pid, "rchar:")
}

func writeBytesProbe(pid int) (Scalar, error) {
	return readIOField(pid, "wchar:")
}

// openFDsProbe counts entries in /proc/<pid>/fd, a single non-recursive
// directory listing per the §9 open question resolution.
func openFDsProbe(pid int) (Scalar, error) {
	entries, err := os.ReadDir(fdPath(pid))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}
	return Scalar(len(entries)), nil
}
