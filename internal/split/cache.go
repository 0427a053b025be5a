// Package split implements C5: splitting generic specializations into their
// own synthesized MIR modules, and the content-addressed object-file cache
// that lets an incremental build skip re-emitting unchanged modules
// (spec.md §4.5). Object identity is a BLAKE3 hash of the module's MIR,
// matching the `.o.blake3` sidecar format of the original (Rust) compiler
// this behavior is grounded on.
package split

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"lukechampine.com/blake3"

	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/types"
)

// VersionToken builds the compiler-version cache-busting token spec.md
// §4.5 condition 2 describes, "<semver>-<build-time>-<vars-hash>", which
// also becomes the contents of the `objects/version` marker file spec.md
// §6 lists among a build's outputs.
func VersionToken(version string, compiledAt time.Time, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := blake3.New(32, nil)
	for _, k := range keys {
		writeString(h, k)
		writeString(h, vars[k])
	}
	varsHash := hex.EncodeToString(h.Sum(nil))[:16]

	return fmt.Sprintf("%s-%d-%s", version, compiledAt.Unix(), varsHash)
}

// Hash is a module's content hash, hex-encoded for use as both a cache key
// and the literal `.o.blake3` sidecar file stem.
type Hash string

// HashModule computes the BLAKE3 digest of a module's MIR, deterministic
// across runs given the same method bodies (spec.md §4.5 "content-addressed
// object cache").
func HashModule(mod *mir.Module, methods map[types.MethodId]*mir.Method) Hash {
	h := blake3.New(32, nil)
	writeUint32(h, uint32(mod.Id))
	writeString(h, string(mod.Name))

	for _, mid := range mod.Methods {
		m, ok := methods[mid]
		if !ok {
			continue
		}
		hashMethod(h, m)
	}
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

func hashMethod(h *blake3.Hasher, m *mir.Method) {
	writeUint32(h, uint32(m.Id))
	writeString(h, m.Name)
	for _, reg := range m.Registers.All() {
		writeUint32(h, uint32(reg.Kind))
		writeUint32(h, uint32(reg.Type.Kind))
	}
	m.Walk(func(b *mir.Block, idx int, ins *mir.Instruction) {
		writeUint32(h, uint32(ins.Op))
		writeUint32(h, uint32(ins.Bin.Dst))
		writeUint32(h, uint32(ins.Bin.Lhs))
		writeUint32(h, uint32(ins.Bin.Rhs))
		writeUint32(h, uint32(ins.Call.Method))
		writeString(h, ins.Call.Builtin)
		writeString(h, ins.Const.StringValue)
		writeUint32(h, uint32(ins.Const.IntValue))
	})
}

func writeUint32(h *blake3.Hasher, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	h.Write(b[:])
}

func writeString(h *blake3.Hasher, s string) {
	writeUint32(h, uint32(len(s)))
	h.Write([]byte(s))
}

// Cache is the on-disk object cache: a directory of `<hash>.o` files plus
// an in-memory LRU of recently resolved hash → path lookups, avoiding a
// re-read of the `.o.blake3` sidecar for modules touched more than once in
// a single build (spec.md §4.5).
type Cache struct {
	dir    string
	lookup *lru.Cache[Hash, string]

	// incrementalDisabled forces every Changed call to report true
	// (spec.md §4.5 condition 1: incremental disabled or dump-verify).
	incrementalDisabled bool
	versionToken        string
	// versionStale is true when the on-disk objects/version marker doesn't
	// match versionToken, forcing every module to recompile once (spec.md
	// §4.5 condition 2) until WriteVersion records the new token.
	versionStale bool
}

// NewCache opens (without yet populating) a cache rooted at dir, keeping
// up to capacity recent hash→path lookups in memory. incrementalDisabled
// and versionToken implement spec.md §4.5 conditions 1 and 2.
func NewCache(dir string, capacity int, incrementalDisabled bool, versionToken string) (*Cache, error) {
	l, err := lru.New[Hash, string](capacity)
	if err != nil {
		return nil, err
	}
	c := &Cache{dir: dir, lookup: l, incrementalDisabled: incrementalDisabled, versionToken: versionToken}
	c.versionStale = c.checkVersion()
	return c, nil
}

func (c *Cache) objectPath(h Hash) string {
	return filepath.Join(c.dir, string(h)+".o")
}

func (c *Cache) sidecarPath(h Hash) string {
	return filepath.Join(c.dir, string(h)+".o.blake3")
}

func (c *Cache) versionPath() string {
	return filepath.Join(c.dir, "version")
}

// checkVersion reports whether the cache's objects/version marker is
// absent or doesn't match c.versionToken.
func (c *Cache) checkVersion() bool {
	recorded, err := os.ReadFile(c.versionPath())
	if err != nil {
		return true
	}
	return string(recorded) != c.versionToken
}

// WriteVersion stamps the current build's version token into
// objects/version, so the next build's NewCache sees a match (spec.md §6).
// The driver calls this once a build completes successfully.
func (c *Cache) WriteVersion() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.versionPath(), []byte(c.versionToken), 0o644)
}

// Changed reports whether a module with hash h needs to be recompiled. It
// does when any of these holds: incremental builds are disabled
// or this is a dump-verify run, the compiler-version token changed, the
// object file is missing, its `.o.blake3` sidecar is missing, the
// sidecar's recorded hash doesn't match h (stale/corrupt cache entry), or
// the object file is empty (a previous write was interrupted).
func (c *Cache) Changed(h Hash) bool {
	if c.incrementalDisabled || c.versionStale {
		return true
	}
	if path, ok := c.lookup.Get(h); ok {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return false
		}
		c.lookup.Remove(h)
	}

	objPath := c.objectPath(h)
	info, err := os.Stat(objPath)
	if err != nil || info.Size() == 0 {
		return true
	}

	recorded, err := os.ReadFile(c.sidecarPath(h))
	if err != nil {
		return true
	}
	if Hash(recorded) != h {
		return true
	}

	c.lookup.Add(h, objPath)
	return false
}

// Invalidate forcibly evicts a cached object for h, so the next Changed
// call for h reports true even if the on-disk object would otherwise
// still look valid. The driver calls this when the dependency graph marks
// a module changed because a module it depends on changed, even though
// this module's own content hash didn't (spec.md §4.5 "transitively mark
// all depending modules as changed").
func (c *Cache) Invalidate(h Hash) {
	c.lookup.Remove(h)
	os.Remove(c.objectPath(h))
	os.Remove(c.sidecarPath(h))
}

// Store writes the compiled object bytes and its sidecar hash for h.
func (c *Cache) Store(h Hash, object []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	objPath := c.objectPath(h)
	if err := os.WriteFile(objPath, object, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(c.sidecarPath(h), []byte(h), 0o644); err != nil {
		return err
	}
	c.lookup.Add(h, objPath)
	return nil
}

// Path returns the on-disk path an up-to-date object for h would live at.
func (c *Cache) Path(h Hash) string { return c.objectPath(h) }
