package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"
)

// Schema : table des compteurs, à créer dans chaque keyspace qui alloue des ids
const Schema = `CREATE TABLE IF NOT EXISTS id_sequences (name text PRIMARY KEY, value bigint)`

const maxAttempts = 10

// Next alloue un identifiant via une LWT sur id_sequences
func Next(ctx context.Context, session *gocql.Session, name string) (int64, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var current int64
		err := session.Query(`SELECT value FROM id_sequences WHERE name = ?`, name).WithContext(ctx).Scan(&current)
		if errors.Is(err, gocql.ErrNotFound) {
			var existingName string
			var existingValue int64
			applied, err := session.Query(`INSERT INTO id_sequences (name, value) VALUES (?, 1) IF NOT EXISTS`, name).
				WithContext(ctx).ScanCAS(&existingName, &existingValue)
			if err != nil {
				return 0, fmt.Errorf("initialisation séquence %s: %w", name, err)
			}
			if applied {
				return 1, nil
			}
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("lecture séquence %s: %w", name, err)
		}

		var seen int64
		applied, err := session.Query(`UPDATE id_sequences SET value = ? WHERE name = ? IF value = ?`, current+1, name, current).
			WithContext(ctx).ScanCAS(&seen)
		if err != nil {
			return 0, fmt.Errorf("incrément séquence %s: %w", name, err)
		}
		if applied {
			return current + 1, nil
		}
	}
	return 0, fmt.Errorf("séquence %s : trop de conflits", name)
}
