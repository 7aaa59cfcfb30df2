package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
//
// parseTime=true maps DATETIME columns to time.Time and loc=UTC keeps
// every stored instant in UTC.  Both matter here: phase resolution and
// offer expiry compare instants directly, and waitlist FIFO order is
// defined by the committed joined_at value (DATETIME(6), microsecond
// precision), so a session in a local timezone would corrupt ordering.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool sizing: admission and confirmation hold a row lock on the
	// event for the duration of one short transaction, so a modest pool
	// keeps lock queues shallow under bursts.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
