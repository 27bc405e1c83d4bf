package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/fray/internal/game/combat"
)

// ErrCombatStateNotFound is returned when no combat state is stored for a player.
var ErrCombatStateNotFound = errors.New("combat state not found")

// CombatStateRepository persists the per-player combat fields needed to
// rebuild a fight after a restart.
type CombatStateRepository struct {
	db *pgxpool.Pool
}

// NewCombatStateRepository creates a CombatStateRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCombatStateRepository(db *pgxpool.Pool) *CombatStateRepository {
	return &CombatStateRepository{db: db}
}

// Save upserts snap.
//
// Precondition: snap.UID must be non-empty.
// Postcondition: Load(snap.UID) returns snap.
func (r *CombatStateRepository) Save(ctx context.Context, snap combat.PlayerSnapshot) error {
	if snap.UID == "" {
		return fmt.Errorf("saving combat state: uid must not be empty")
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO combat_state (uid, health, experience, in_combat, combo_target, combo_points, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (uid) DO UPDATE SET
			health = EXCLUDED.health,
			experience = EXCLUDED.experience,
			in_combat = EXCLUDED.in_combat,
			combo_target = EXCLUDED.combo_target,
			combo_points = EXCLUDED.combo_points,
			updated_at = NOW()`,
		snap.UID, snap.Health, snap.Experience, snap.InCombat, snap.ComboTarget, snap.ComboPoints,
	)
	if err != nil {
		return fmt.Errorf("saving combat state for %q: %w", snap.UID, err)
	}
	return nil
}

// Load returns the stored state for uid.
//
// Postcondition: Returns ErrCombatStateNotFound when nothing is stored.
func (r *CombatStateRepository) Load(ctx context.Context, uid string) (combat.PlayerSnapshot, error) {
	var snap combat.PlayerSnapshot
	err := r.db.QueryRow(ctx, `
		SELECT uid, health, experience, in_combat, combo_target, combo_points
		FROM combat_state WHERE uid = $1`,
		uid,
	).Scan(&snap.UID, &snap.Health, &snap.Experience, &snap.InCombat, &snap.ComboTarget, &snap.ComboPoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return combat.PlayerSnapshot{}, ErrCombatStateNotFound
		}
		return combat.PlayerSnapshot{}, fmt.Errorf("loading combat state for %q: %w", uid, err)
	}
	return snap, nil
}

// ListInCombat returns the uids whose stored in-combat flag is set, ordered by uid.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CombatStateRepository) ListInCombat(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT uid FROM combat_state WHERE in_combat ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("listing in-combat players: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scanning in-combat player: %w", err)
		}
		out = append(out, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating in-combat players: %w", err)
	}
	return out, nil
}

// Delete removes the stored state for uid.
//
// Postcondition: Returns ErrCombatStateNotFound if nothing was stored.
func (r *CombatStateRepository) Delete(ctx context.Context, uid string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM combat_state WHERE uid = $1`, uid)
	if err != nil {
		return fmt.Errorf("deleting combat state for %q: %w", uid, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCombatStateNotFound
	}
	return nil
}
