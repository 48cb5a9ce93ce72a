package repos

import (
	"embed"
	"log"
	"strings"

	"github.com/go-faster/errors"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// OpenDB opens the sqlite database at dsn, applies migrations and seeds the
// demo catalog, coupons and users when the tables are empty.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, err
	}
	if isMemory(dsn) {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := migrateUp(db); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, errors.Wrap(err, "seed catalog")
	}
	if err := seedUsers(db); err != nil {
		return nil, errors.Wrap(err, "seed users")
	}
	return db, nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func migrateUp(db *sqlx.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "migration source")
	}
	// m.Close would close db as well; only the source needs releasing.
	defer src.Close()
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return errors.Wrap(err, "migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return errors.Wrap(err, "migrate")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migrate up")
	}
	return nil
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/products/variants/coupons")

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`INSERT INTO categories(id,name) VALUES
		  ('tees','T-Shirts'),
		  ('hoodies','Hoodies'),
		  ('accessories','Accessories')`,

		`INSERT INTO products(id,category_id,name,description,price,discount_price,active_discount,image_cover) VALUES
		  ('tee-basic','tees','Basic Tee','Heavyweight cotton tee','125000','99000',1,'products/tee-basic/cover.jpg'),
		  ('hoodie-zip','hoodies','Zip Hoodie','Brushed fleece zip hoodie','350000',NULL,0,'products/hoodie-zip/cover.jpg'),
		  ('cap-logo','accessories','Logo Cap','Six panel cap','85000','85000',1,'products/cap-logo/cover.jpg')`,

		`INSERT INTO variants(id,product_id,size,color,qty,media_json,position) VALUES
		  ('tee-basic-s-black','tee-basic','S','Black',10,'["products/tee-basic/s-black.jpg"]',0),
		  ('tee-basic-m-black','tee-basic','M','Black',5,'[]',1),
		  ('tee-basic-l-black','tee-basic','L','Black',0,'[]',2),
		  ('tee-basic-s-white','tee-basic','S','White',7,'["products/tee-basic/s-white.jpg","products/tee-basic/s-white-back.jpg"]',3),
		  ('tee-basic-m-white','tee-basic','M','White',3,'[]',4),
		  ('hoodie-zip-m-grey','hoodie-zip','M','Grey',4,'["products/hoodie-zip/grey.jpg"]',0),
		  ('hoodie-zip-l-grey','hoodie-zip','L','Grey',2,'[]',1),
		  ('hoodie-zip-l-navy','hoodie-zip','L','Navy',6,'["products/hoodie-zip/navy.jpg"]',2),
		  ('cap-logo-black','cap-logo','','Black',20,'[]',0)`,

		`INSERT INTO coupons(id,code,percentage,active,expires_at) VALUES
		  ('cp-welcome10','WELCOME10','10',1,NULL),
		  ('cp-halfoff','HALFOFF','50',0,NULL),
		  ('cp-expired15','EXPIRED15','15',1,'2020-01-01T00:00:00Z')`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// seedUsers ensures one USER and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role string
	}
	users := []u{
		{"u-alice", "alice@storefront.test", "Alice", "USER"},
		{"u-bob", "bob@storefront.test", "Bob", "USER"},
		{"u-admin", "admin@storefront.test", "Admin", "ADMIN"},
	}

	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n >= len(users) {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		h, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, string(h), x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
