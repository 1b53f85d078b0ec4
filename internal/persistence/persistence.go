package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/markusressel/fancontrol/internal/hwmon"
	"github.com/markusressel/fancontrol/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketControllers = "controllers"
	BucketThermal     = "thermalZones"

	keyDetected = "detected"
)

// Persistence stores the hardware channels found by detection, so the
// configuration wizard can prefill register and sensor paths without probing
// the hardware again.
type Persistence interface {
	Init() error

	SaveDetectedControllers(controllers []*hwmon.Controller) error
	LoadDetectedControllers() ([]*hwmon.Controller, error)

	SaveDetectedThermalZones(zones []hwmon.ThermalZone) error
	LoadDetectedThermalZones() ([]hwmon.ThermalZone, error)

	DeleteDetectedHardware() error
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (p persistence) SaveDetectedControllers(controllers []*hwmon.Controller) error {
	return p.saveJSON(BucketControllers, controllers)
}

func (p persistence) LoadDetectedControllers() ([]*hwmon.Controller, error) {
	var controllers []*hwmon.Controller
	err := p.loadJSON(BucketControllers, &controllers)
	return controllers, err
}

func (p persistence) SaveDetectedThermalZones(zones []hwmon.ThermalZone) error {
	return p.saveJSON(BucketThermal, zones)
}

func (p persistence) LoadDetectedThermalZones() ([]hwmon.ThermalZone, error) {
	var zones []hwmon.ThermalZone
	err := p.loadJSON(BucketThermal, &zones)
	return zones, err
}

func (p persistence) DeleteDetectedHardware() error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{BucketControllers, BucketThermal} {
			if err := tx.DeleteBucket([]byte(bucket)); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
		}
		return nil
	})
}

func (p persistence) saveJSON(bucket string, value interface{}) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(keyDetected), data)
	})
}

func (p persistence) loadJSON(bucket string, target interface{}) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("no detected hardware saved yet, run 'fancontrol detect --save' first")
		}
		data := b.Get([]byte(keyDetected))
		if data == nil {
			return fmt.Errorf("no detected hardware saved yet, run 'fancontrol detect --save' first")
		}
		return json.Unmarshal(data, target)
	})
}
