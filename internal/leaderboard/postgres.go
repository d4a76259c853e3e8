package leaderboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/onnwee/kitrank/internal/tracing"
)

// PostgresStore implements Source and ProfileStore over the collection
// schema. Each category is a single aggregate query; the > 0 floor and the
// MaxEntries cap are applied in SQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const collectionSizeQuery = `
	SELECT o.collector_id,
	       COUNT(*) AS score,
	       (COALESCE(SUM(o.purchase_price), 0) * 100)::bigint AS total_cents
	FROM ownership_records o
	WHERE ($1::timestamptz IS NULL OR o.created_at >= $1)
	GROUP BY o.collector_id
	HAVING COUNT(*) > 0
	ORDER BY score DESC, o.collector_id ASC
	LIMIT $2
`

const collectionDiversityQuery = `
	SELECT o.collector_id, COUNT(DISTINCT i.club_id) AS score
	FROM ownership_records o
	JOIN items i ON i.id = o.item_id
	WHERE i.club_id IS NOT NULL
	GROUP BY o.collector_id
	HAVING COUNT(DISTINCT i.club_id) > 0
	ORDER BY score DESC, o.collector_id ASC
	LIMIT $1
`

const leagueDiversityQuery = `
	SELECT o.collector_id, COUNT(DISTINCT c.league_id) AS score
	FROM ownership_records o
	JOIN items i ON i.id = o.item_id
	JOIN clubs c ON c.id = i.club_id
	WHERE c.league_id IS NOT NULL
	GROUP BY o.collector_id
	HAVING COUNT(DISTINCT c.league_id) > 0
	ORDER BY score DESC, o.collector_id ASC
	LIMIT $1
`

// The CASE guards the cast so malformed seasons are skipped rather than
// failing the query. Year 0000 is treated as malformed, as in SeasonStartYear.
const vintageSpecialistQuery = `
	SELECT o.collector_id, COUNT(*) AS score
	FROM ownership_records o
	JOIN items i ON i.id = o.item_id
	WHERE (CASE WHEN i.season ~ '^[0-9]{4}' THEN SUBSTRING(i.season FROM 1 FOR 4)::int END) BETWEEN 1 AND $1::int - 1
	GROUP BY o.collector_id
	HAVING COUNT(*) > 0
	ORDER BY score DESC, o.collector_id ASC
	LIMIT $2
`

const collectorsQuery = `
	SELECT c.id, c.username, c.name, c.avatar_ref, c.leaderboard_anonymous,
	       fc.id, fc.name
	FROM collectors c
	LEFT JOIN clubs fc ON fc.id = c.favorite_club_id
	WHERE c.id = ANY($1)
`

// CollectionSize implements Source.
func (s *PostgresStore) CollectionSize(ctx context.Context, since time.Time) (scores []Score, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "ownership_records", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	sinceArg := sql.NullTime{Time: since, Valid: !since.IsZero()}
	rows, err := s.db.QueryContext(ctx, collectionSizeQuery, sinceArg, MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection size: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc Score
		var cents int64
		if err := rows.Scan(&sc.UserID, &sc.Value, &cents); err != nil {
			return nil, fmt.Errorf("failed to scan collection size row: %w", err)
		}
		total := fromMinorUnits(cents)
		sc.Metadata = Metadata{ItemCount: sc.Value, TotalValue: &total}
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection size rows: %w", err)
	}
	return scores, nil
}

// CollectionDiversity implements Source.
func (s *PostgresStore) CollectionDiversity(ctx context.Context) (scores []Score, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "ownership_records", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	scores, err = s.queryCounts(ctx, collectionDiversityQuery, MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection diversity: %w", err)
	}
	for i := range scores {
		scores[i].Metadata = Metadata{UniqueClubs: scores[i].Value}
	}
	return scores, nil
}

// LeagueDiversity implements Source.
func (s *PostgresStore) LeagueDiversity(ctx context.Context) (scores []Score, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "ownership_records", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	scores, err = s.queryCounts(ctx, leagueDiversityQuery, MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to query league diversity: %w", err)
	}
	for i := range scores {
		scores[i].Metadata = Metadata{UniqueLeagues: scores[i].Value}
	}
	return scores, nil
}

// VintageSpecialist implements Source.
func (s *PostgresStore) VintageSpecialist(ctx context.Context, cutoffYear int) (scores []Score, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "ownership_records", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	scores, err = s.queryCounts(ctx, vintageSpecialistQuery, cutoffYear, MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to query vintage specialist: %w", err)
	}
	for i := range scores {
		scores[i].Metadata = Metadata{VintageItems: scores[i].Value}
	}
	return scores, nil
}

// queryCounts runs a query returning (collector_id, score) rows.
func (s *PostgresStore) queryCounts(ctx context.Context, query string, args ...any) ([]Score, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		var sc Score
		if err := rows.Scan(&sc.UserID, &sc.Value); err != nil {
			return nil, err
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// Collectors implements ProfileStore.
func (s *PostgresStore) Collectors(ctx context.Context, ids []string) (out map[string]Collector, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "collectors", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := s.db.QueryContext(ctx, collectorsQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query collectors: %w", err)
	}
	defer rows.Close()

	out = make(map[string]Collector, len(ids))
	for rows.Next() {
		var (
			c         Collector
			username  sql.NullString
			avatarRef sql.NullString
			clubID    sql.NullString
			clubName  sql.NullString
		)
		if err := rows.Scan(&c.ID, &username, &c.Name, &avatarRef, &c.LeaderboardAnonymous, &clubID, &clubName); err != nil {
			return nil, fmt.Errorf("failed to scan collector: %w", err)
		}
		if username.Valid {
			c.Username = &username.String
		}
		if avatarRef.Valid {
			c.AvatarRef = &avatarRef.String
		}
		if clubID.Valid {
			c.FavoriteClub = &ClubRef{ID: clubID.String, Name: clubName.String}
		}
		out[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collectors: %w", err)
	}
	return out, nil
}
