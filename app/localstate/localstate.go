// Package localstate persists the store's durable snapshots: the current
// user profile, favorites, per-product order stats and the pickup address.
// Each snapshot lives under its own namespaced key and is written
// synchronously by every store operation that touches it.
//
// Two drivers are available, selected by STATE_DRIVER: "disk" (default)
// writes JSON files under STATE_DIR via the storage layer, "redis" keeps the
// snapshots in Redis so several terminals can share a session.
package localstate

import (
	"encoding/json"
	"fmt"

	"github.com/hoffee-app/hoffee/config"
	"github.com/hoffee-app/hoffee/pkg/cache"
	"github.com/hoffee-app/hoffee/pkg/crypt"
	"github.com/hoffee-app/hoffee/pkg/storage"
)

// Snapshot keys. KeyUser is encrypted at rest; the rest are plain JSON.
const (
	KeyUser      = "hoffee_user"
	KeyFavorites = "hoffee_favorites"
	KeyStats     = "hoffee_stats"
	KeyAddress   = "hoffee_address"
)

// Driver reads and writes raw snapshot bytes.
type Driver interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, bool, error)
	Delete(key string) error
}

// Snapshots is the typed persistence facade the store works with.
type Snapshots struct {
	driver Driver
}

// New builds the Snapshots facade on the configured driver.
func New() *Snapshots {
	if config.StateDriver() == "redis" {
		return &Snapshots{driver: NewRedisDriver()}
	}
	return &Snapshots{driver: NewDiskDriver(config.StateDir())}
}

// NewWithDriver builds the facade on an explicit driver (tests).
func NewWithDriver(d Driver) *Snapshots {
	return &Snapshots{driver: d}
}

// Save writes v as JSON under key.
func (s *Snapshots) Save(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localstate: marshal %s: %w", key, err)
	}
	return s.driver.Put(key, data)
}

// Load reads the snapshot under key into dest. Returns false when no
// snapshot exists.
func (s *Snapshots) Load(key string, dest interface{}) (bool, error) {
	data, ok, err := s.driver.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("localstate: unmarshal %s: %w", key, err)
	}
	return true, nil
}

// SaveEncrypted writes v encrypted with the app key. Used for the user
// profile, which carries personal data.
func (s *Snapshots) SaveEncrypted(key string, v interface{}) error {
	enc, err := crypt.EncryptJSON(v)
	if err != nil {
		return fmt.Errorf("localstate: encrypt %s: %w", key, err)
	}
	return s.driver.Put(key, []byte(enc))
}

// LoadEncrypted reads and decrypts the snapshot under key. A snapshot that
// fails to decrypt (rotated key, corruption) is treated as absent.
func (s *Snapshots) LoadEncrypted(key string, dest interface{}) (bool, error) {
	data, ok, err := s.driver.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := crypt.DecryptJSON(string(data), dest); err != nil {
		return false, nil
	}
	return true, nil
}

// Clear removes the snapshots under the given keys.
func (s *Snapshots) Clear(keys ...string) error {
	for _, key := range keys {
		if err := s.driver.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// ── Disk driver ───────────────────────────────────────────────────────────────

type diskDriver struct {
	disk storage.Disk
}

// NewDiskDriver stores each snapshot as <key>.json under root.
func NewDiskDriver(root string) Driver {
	return &diskDriver{disk: storage.NewLocalDisk(root, "")}
}

func (d *diskDriver) path(key string) string { return key + ".json" }

func (d *diskDriver) Put(key string, data []byte) error {
	return d.disk.Put(d.path(key), data)
}

func (d *diskDriver) Get(key string) ([]byte, bool, error) {
	if !d.disk.Exists(d.path(key)) {
		return nil, false, nil
	}
	data, err := d.disk.Get(d.path(key))
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (d *diskDriver) Delete(key string) error {
	return d.disk.Delete(d.path(key))
}

// ── Redis driver ──────────────────────────────────────────────────────────────

type redisDriver struct{}

// NewRedisDriver stores snapshots in Redis under a "hoffee:state:" prefix.
// Falls back to misses when Redis is unavailable.
func NewRedisDriver() Driver {
	return &redisDriver{}
}

func (redisDriver) key(key string) string { return "hoffee:state:" + key }

func (r redisDriver) Put(key string, data []byte) error {
	return cache.SetRaw(r.key(key), data, 0)
}

func (r redisDriver) Get(key string) ([]byte, bool, error) {
	data, ok := cache.GetRaw(r.key(key))
	return data, ok, nil
}

func (r redisDriver) Delete(key string) error {
	return cache.Del(r.key(key))
}
