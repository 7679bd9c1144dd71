package game

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultCatalog tests the built-in weapon set
func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	if catalog.Len() != 3 {
		t.Errorf("Expected 3 weapons, got %d", catalog.Len())
	}

	w, ok := catalog.Get(1)
	if !ok {
		t.Fatal("Default weapon 1 missing")
	}
	if w.Name != "Golden Friend" {
		t.Errorf("Expected 'Golden Friend', got '%s'", w.Name)
	}
	if w.Damage != 20 {
		t.Errorf("Expected damage 20, got %d", w.Damage)
	}
	if w.Magazine != 20 {
		t.Errorf("Expected magazine 20, got %d", w.Magazine)
	}
	if w.IsMelee() {
		t.Error("Weapon 1 should not be melee")
	}

	knife, ok := catalog.Get(3)
	if !ok {
		t.Fatal("Weapon 3 missing")
	}
	if !knife.IsMelee() {
		t.Error("Combat Knife should be melee")
	}
}

// TestLoadCatalog tests loading a weapon list from disk
func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weapons.json")
	data := `[
		{"id": 1, "name": "Pistol", "damage": 15, "fire_rate": 3.0, "range": 80, "reload_time": 0.8, "ammo": 12},
		{"id": 5, "name": "Blade", "damage": 40, "fire_rate": 1.0, "range": 2, "reload_time": 0, "ammo": 0}
	]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if catalog.Len() != 2 {
		t.Errorf("Expected 2 weapons, got %d", catalog.Len())
	}

	w, ok := catalog.Get(1)
	if !ok {
		t.Fatal("Weapon 1 missing after load")
	}
	if w.Magazine != 12 {
		t.Errorf("Expected magazine 12, got %d", w.Magazine)
	}
}

// TestLoadCatalogMissingDefault rejects a catalog without the spawn weapon
func TestLoadCatalogMissingDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weapons.json")
	data := `[{"id": 7, "name": "Odd", "damage": 10, "fire_rate": 1, "range": 10, "reload_time": 1, "ammo": 5}]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCatalog(path); err == nil {
		t.Error("Expected error for catalog missing default weapon")
	}
}

// TestLoadCatalogEmptyPath falls back to the built-in set
func TestLoadCatalogEmptyPath(t *testing.T) {
	catalog, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog(\"\") failed: %v", err)
	}
	if !catalog.Contains(DefaultWeaponID) {
		t.Error("Built-in catalog missing default weapon")
	}
}
