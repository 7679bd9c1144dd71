package game

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultWeaponID is the weapon every player spawns with.
const DefaultWeaponID uint32 = 1

// Weapon is an immutable weapon definition.
// Magazine 0 marks a melee weapon: no ammo tracking and no reload.
type Weapon struct {
	ID         uint32  `json:"id"`
	Name       string  `json:"name"`
	Damage     int     `json:"damage"`
	FireRate   float64 `json:"fire_rate"` // shots per second
	Range      float64 `json:"range"`
	ReloadTime float64 `json:"reload_time"` // seconds, 0 = non-reloadable
	Magazine   int     `json:"ammo"`        // magazine size, 0 = melee
}

// IsMelee reports whether the weapon tracks no ammo.
func (w Weapon) IsMelee() bool {
	return w.Magazine == 0
}

// Catalog is the immutable weapon database, loaded once at startup and
// shared read-only between every lobby tick loop.
type Catalog struct {
	weapons map[uint32]Weapon
}

// DefaultCatalog returns the built-in weapon set.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Weapon{
		{ID: 1, Name: "Golden Friend", Damage: 20, FireRate: 4.0, Range: 100.0, ReloadTime: 1.0, Magazine: 20},
		{ID: 2, Name: "Prototype", Damage: 30, FireRate: 2.0, Range: 150.0, ReloadTime: 1.5, Magazine: 8},
		{ID: 3, Name: "Combat Knife", Damage: 50, FireRate: 1.5, Range: 3.0, ReloadTime: 0, Magazine: 0},
	})
}

// NewCatalog builds a catalog from a weapon list. Later duplicates win.
func NewCatalog(weapons []Weapon) *Catalog {
	m := make(map[uint32]Weapon, len(weapons))
	for _, w := range weapons {
		m[w.ID] = w
	}
	return &Catalog{weapons: m}
}

// LoadCatalog reads a JSON weapon list from disk (same schema the client's
// weapon.json uses). An empty path returns the built-in defaults.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("weapon catalog: %w", err)
	}

	var weapons []Weapon
	if err := json.Unmarshal(data, &weapons); err != nil {
		return nil, fmt.Errorf("weapon catalog %s: %w", path, err)
	}
	if len(weapons) == 0 {
		return nil, fmt.Errorf("weapon catalog %s: empty", path)
	}

	catalog := NewCatalog(weapons)
	if !catalog.Contains(DefaultWeaponID) {
		return nil, fmt.Errorf("weapon catalog %s: missing default weapon %d", path, DefaultWeaponID)
	}
	return catalog, nil
}

// Get returns a weapon by ID.
func (c *Catalog) Get(id uint32) (Weapon, bool) {
	w, ok := c.weapons[id]
	return w, ok
}

// Contains reports whether a weapon ID exists.
func (c *Catalog) Contains(id uint32) bool {
	_, ok := c.weapons[id]
	return ok
}

// Len returns the number of weapons.
func (c *Catalog) Len() int {
	return len(c.weapons)
}

// All returns every weapon as a slice (for the control-plane weapon listing).
func (c *Catalog) All() []Weapon {
	out := make([]Weapon, 0, len(c.weapons))
	for _, w := range c.weapons {
		out = append(out, w)
	}
	return out
}
