package game

import "time"

// MaxDamagePerShot bounds the damage a single shot may apply. Catalog values
// outside (0, 100] are rejected at application time rather than trusted.
const MaxDamagePerShot = 100

// Combat rules. All functions assume the caller holds the lobby write lock;
// the tick loop is the sole caller on the hot path.

// tryShoot validates the fire-rate gate, reload state, and ammo, and on
// success consumes one round and stamps the shot time. Returns whether the
// shot fired; the error is reserved for unknown player/weapon.
func (l *Lobby) tryShoot(catalog *Catalog, playerID uint32, now time.Time) (bool, error) {
	p, ok := l.players[playerID]
	if !ok {
		return false, ErrPlayerNotFound
	}

	if p.Reloading {
		return false, nil
	}

	weapon, ok := catalog.Get(p.WeaponID)
	if !ok {
		return false, ErrWeaponNotFound
	}

	// Melee short-circuits ammo accounting entirely.
	if !weapon.IsMelee() && p.Ammo <= 0 {
		return false, nil
	}

	if weapon.FireRate > 0 && now.Sub(p.LastShotTime).Seconds() < 1.0/weapon.FireRate {
		return false, nil // too soon to shoot again
	}

	if !weapon.IsMelee() {
		p.Ammo--
		if p.Ammo < 0 {
			p.Ammo = 0
		}
	}
	p.LastShotTime = now
	l.markDirty(playerID)
	return true, nil
}

// applyDamage reduces the target's health, saturating at zero. Damage outside
// (0, MaxDamagePerShot] is rejected with no mutation.
func (l *Lobby) applyDamage(targetID uint32, damage int) error {
	p, ok := l.players[targetID]
	if !ok {
		return ErrPlayerNotFound
	}
	if damage <= 0 || damage > MaxDamagePerShot {
		return ErrInvalidDamage
	}

	p.Health -= damage
	if p.Health < 0 {
		p.Health = 0
	}
	l.markDirty(targetID)
	return nil
}

// startReload begins a reload unless one is running, the magazine is already
// full, or the weapon is melee. Returns whether a reload started.
func (l *Lobby) startReload(catalog *Catalog, playerID uint32, now time.Time) (bool, error) {
	p, ok := l.players[playerID]
	if !ok {
		return false, ErrPlayerNotFound
	}
	if p.Reloading || p.Ammo >= p.MaxAmmo {
		return false, nil
	}

	weapon, ok := catalog.Get(p.WeaponID)
	if !ok {
		return false, ErrWeaponNotFound
	}
	if weapon.IsMelee() {
		return false, nil
	}

	p.Reloading = true
	p.ReloadEndTime = now.Add(time.Duration(weapon.ReloadTime * float64(time.Second)))
	l.markDirty(playerID)
	return true, nil
}

// completeReloads finishes every reload whose end time has passed, refilling
// the magazine. Returns the ids whose reload completed this tick.
func (l *Lobby) completeReloads(now time.Time) []uint32 {
	var completed []uint32
	for id, p := range l.players {
		if p.Reloading && !now.Before(p.ReloadEndTime) {
			p.Ammo = p.MaxAmmo
			p.Reloading = false
			p.ReloadEndTime = time.Time{}
			completed = append(completed, id)
		}
	}
	for _, id := range completed {
		l.markDirty(id)
	}
	return completed
}

// switchWeapon equips a new weapon, resets ammo to its full magazine, and
// cancels any reload in progress. The canceled reload never completes, so
// switching cannot be used to finish a reload early.
func (l *Lobby) switchWeapon(catalog *Catalog, playerID, weaponID uint32) error {
	p, ok := l.players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	weapon, ok := catalog.Get(weaponID)
	if !ok {
		return ErrWeaponNotFound
	}

	p.WeaponID = weaponID
	p.Ammo = weapon.Magazine
	p.MaxAmmo = weapon.Magazine
	p.Reloading = false
	p.ReloadEndTime = time.Time{}
	l.markDirty(playerID)
	return nil
}
