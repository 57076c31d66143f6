package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/khushisara1/news-digest/internal/digest"
	_ "modernc.org/sqlite"
)

// Store persists saved items and digests in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	// One connection keeps writes serialized and the foreign_keys pragma in effect.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: dbPath}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			id           TEXT PRIMARY KEY,
			url          TEXT NOT NULL UNIQUE,
			title        TEXT NOT NULL,
			source       TEXT NOT NULL DEFAULT '',
			author       TEXT NOT NULL DEFAULT '',
			description  TEXT NOT NULL DEFAULT '',
			image_url    TEXT NOT NULL DEFAULT '',
			region       TEXT NOT NULL DEFAULT '',
			published_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS saved_items (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			article_id TEXT NOT NULL UNIQUE REFERENCES articles(id) ON DELETE CASCADE,
			slug       TEXT NOT NULL,
			category   TEXT NOT NULL DEFAULT '',
			summary    TEXT NOT NULL DEFAULT '',
			rating     INTEGER NOT NULL DEFAULT 0 CHECK (rating BETWEEN 0 AND 5),
			saved_at   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_saved_category ON saved_items(category);

		CREATE TABLE IF NOT EXISTS digests (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			query      TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS digest_items (
			digest_id TEXT NOT NULL REFERENCES digests(id) ON DELETE CASCADE,
			item_id   INTEGER NOT NULL REFERENCES saved_items(id) ON DELETE CASCADE,
			position  INTEGER NOT NULL,
			PRIMARY KEY (digest_id, item_id)
		);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func utc(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// SaveItem stores it and its article in one transaction and returns the item
// id. Saving a URL that is already saved updates its summary, category and
// rating instead of adding a second row.
func (s *Store) SaveItem(it digest.Item) (int64, error) {
	if !digest.ValidRating(it.Rating) {
		return 0, ErrInvalidRating
	}
	if strings.TrimSpace(it.URL) == "" {
		return 0, errors.New("saving item: url is required")
	}
	if it.Slug == "" {
		it.Slug = digest.Slugify(it.Title)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// An existing row for the same URL keeps its id.
	articleID := it.ArticleID
	var existing string
	err = tx.QueryRow(`SELECT id FROM articles WHERE url = ?`, it.URL).Scan(&existing)
	switch {
	case err == nil:
		articleID = existing
	case errors.Is(err, sql.ErrNoRows):
		if articleID == "" {
			articleID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(it.URL)).String()
		}
	default:
		return 0, fmt.Errorf("looking up article: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO articles (id, url, title, source, author, description, image_url, region, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			source = excluded.source,
			author = excluded.author,
			description = excluded.description,
			image_url = excluded.image_url
	`, articleID, it.URL, it.Title, it.Source, it.Author, it.Description, it.ImageURL, it.Region, utc(it.PublishedAt))
	if err != nil {
		return 0, fmt.Errorf("upserting article %s: %w", articleID, err)
	}

	var id int64
	err = tx.QueryRow(`
		INSERT INTO saved_items (article_id, slug, category, summary, rating, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(article_id) DO UPDATE SET
			slug = excluded.slug,
			category = excluded.category,
			summary = excluded.summary,
			rating = excluded.rating
		RETURNING id
	`, articleID, it.Slug, it.Category, it.Summary, it.Rating, utc(time.Now())).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("saving item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

const itemColumns = `
	s.id, s.article_id, s.slug, a.title, a.url, a.source, a.author, a.description,
	a.image_url, a.region, a.published_at, s.category, s.summary, s.rating, s.saved_at`

const itemFrom = ` FROM saved_items s JOIN articles a ON a.id = s.article_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (digest.Item, error) {
	var it digest.Item
	err := row.Scan(&it.ID, &it.ArticleID, &it.Slug, &it.Title, &it.URL, &it.Source, &it.Author,
		&it.Description, &it.ImageURL, &it.Region, &it.PublishedAt, &it.Category, &it.Summary,
		&it.Rating, &it.SavedAt)
	return it, err
}

// GetItem returns the saved item with the given id.
func (s *Store) GetItem(id int64) (digest.Item, error) {
	it, err := scanItem(s.db.QueryRow(`SELECT `+itemColumns+itemFrom+` WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return digest.Item{}, ErrNotFound
	}
	if err != nil {
		return digest.Item{}, fmt.Errorf("getting item %d: %w", id, err)
	}
	return it, nil
}

// ListItems returns saved items, highest rated first, then newest.
func (s *Store) ListItems(opts ListOpts) ([]digest.Item, error) {
	var (
		where []string
		args  []interface{}
	)

	if opts.Category != "" && !strings.EqualFold(opts.Category, "All") {
		where = append(where, "s.category = ?")
		args = append(args, opts.Category)
	}

	if q := strings.TrimSpace(opts.Search); q != "" {
		where = append(where, "(LOWER(a.title) LIKE ? ESCAPE '\\' OR LOWER(a.source) LIKE ? ESCAPE '\\' OR LOWER(s.summary) LIKE ? ESCAPE '\\')")
		term := "%" + escapeLike(strings.ToLower(q)) + "%"
		args = append(args, term, term, term)
	}

	query := "SELECT " + itemColumns + itemFrom
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.rating DESC, a.published_at DESC, s.id DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []digest.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Search is ListItems filtered by q across title, source and summary.
func (s *Store) Search(q string) ([]digest.Item, error) {
	return s.ListItems(ListOpts{Search: q})
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Categories returns the distinct categories of saved items, sorted.
func (s *Store) Categories() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT category FROM saved_items WHERE category != '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var cats []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// UpdateRating sets the rating of a saved item. Only 0 to 5 is accepted.
func (s *Store) UpdateRating(id int64, rating int) error {
	if !digest.ValidRating(rating) {
		return ErrInvalidRating
	}
	res, err := s.db.Exec(`UPDATE saved_items SET rating = ? WHERE id = ?`, rating, id)
	if err != nil {
		return fmt.Errorf("updating rating: %w", err)
	}
	return requireRow(res)
}

// DeleteItem removes a saved item and its article row.
func (s *Store) DeleteItem(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var articleID string
	err = tx.QueryRow(`SELECT article_id FROM saved_items WHERE id = ?`, id).Scan(&articleID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting item %d: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM articles WHERE id = ?`, articleID); err != nil {
		return fmt.Errorf("deleting item %d: %w", id, err)
	}
	return tx.Commit()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateDigest stores a named digest referencing saved items in order.
func (s *Store) CreateDigest(name, query string, itemIDs []int64) (digest.Digest, error) {
	d := digest.Digest{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		CreatedAt: utc(time.Now()),
		Query:     query,
	}
	if d.Name == "" {
		d.Name = "Digest " + d.CreatedAt.Format("2006-01-02 15:04")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return digest.Digest{}, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO digests (id, name, query, created_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.Name, d.Query, d.CreatedAt); err != nil {
		return digest.Digest{}, fmt.Errorf("creating digest: %w", err)
	}
	seen := make(map[int64]bool, len(itemIDs))
	pos := 0
	for _, id := range itemIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		_, err := tx.Exec(`INSERT INTO digest_items (digest_id, item_id, position) VALUES (?, ?, ?)`, d.ID, id, pos)
		pos++
		if err != nil {
			// A missing item fails the foreign key check.
			return digest.Digest{}, fmt.Errorf("adding item %d to digest: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return digest.Digest{}, err
	}
	return s.GetDigest(d.ID)
}

// GetDigest returns a digest with its items in digest order.
func (s *Store) GetDigest(id string) (digest.Digest, error) {
	var d digest.Digest
	err := s.db.QueryRow(`SELECT id, name, query, created_at FROM digests WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Query, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return digest.Digest{}, ErrNotFound
	}
	if err != nil {
		return digest.Digest{}, fmt.Errorf("getting digest %s: %w", id, err)
	}

	rows, err := s.db.Query(`SELECT `+itemColumns+itemFrom+`
		JOIN digest_items di ON di.item_id = s.id
		WHERE di.digest_id = ?
		ORDER BY di.position`, id)
	if err != nil {
		return digest.Digest{}, fmt.Errorf("querying digest items: %w", err)
	}
	defer rows.Close()

	d.Items = []digest.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return digest.Digest{}, fmt.Errorf("scanning item: %w", err)
		}
		d.Items = append(d.Items, it)
	}
	return d, rows.Err()
}

// DigestSummary is a digest header with its item count.
type DigestSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Items     int       `json:"items"`
}

// ListDigests returns digests newest first.
func (s *Store) ListDigests() ([]DigestSummary, error) {
	rows, err := s.db.Query(`
		SELECT d.id, d.name, d.created_at, COUNT(di.item_id)
		FROM digests d LEFT JOIN digest_items di ON di.digest_id = d.id
		GROUP BY d.id
		ORDER BY d.created_at DESC, d.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying digests: %w", err)
	}
	defer rows.Close()

	var out []DigestSummary
	for rows.Next() {
		var ds DigestSummary
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.CreatedAt, &ds.Items); err != nil {
			return nil, fmt.Errorf("scanning digest: %w", err)
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

func (s *Store) DeleteDigest(id string) error {
	res, err := s.db.Exec(`DELETE FROM digests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting digest: %w", err)
	}
	return requireRow(res)
}

// Prune deletes digests created more than olderThan ago and runs VACUUM.
// Saved items are never pruned.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	cutoff := utc(time.Now().Add(-olderThan))
	res, err := s.db.Exec(`DELETE FROM digests WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning digests: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		if _, err := s.db.Exec(`VACUUM`); err != nil {
			return n, fmt.Errorf("vacuum: %w", err)
		}
	}
	return n, nil
}

// Stats reports item and digest counts plus the database size.
func (s *Store) Stats() (Stats, error) {
	st := Stats{Categories: map[string]int{}}
	st.LastFetch, _ = s.LastFetch()
	if info, err := os.Stat(s.path); err == nil {
		st.SizeBytes = info.Size()
	}

	var avg sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN rating > 0 THEN 1 ELSE 0 END), 0),
			AVG(CASE WHEN rating > 0 THEN rating END)
		FROM saved_items`).Scan(&st.SavedItems, &st.Rated, &avg)
	if err != nil {
		return st, fmt.Errorf("counting items: %w", err)
	}
	st.AvgRating = avg.Float64

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM digests`).Scan(&st.Digests); err != nil {
		return st, fmt.Errorf("counting digests: %w", err)
	}

	rows, err := s.db.Query(`SELECT category, COUNT(*) FROM saved_items GROUP BY category`)
	if err != nil {
		return st, fmt.Errorf("counting categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c string
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return st, err
		}
		st.Categories[c] = n
	}
	return st, rows.Err()
}

// LastFetch returns when the feed was last fetched, or the zero time.
func (s *Store) LastFetch() (time.Time, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = 'last_fetch'").Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

func (s *Store) SetLastFetch(t time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO meta (key, value) VALUES ('last_fetch', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, t.UTC().Format(time.RFC3339))
	return err
}

// NeedsRefresh reports whether the last fetch is older than interval.
func (s *Store) NeedsRefresh(interval time.Duration) bool {
	t, err := s.LastFetch()
	if err != nil || t.IsZero() {
		return true
	}
	return time.Since(t) > interval
}
